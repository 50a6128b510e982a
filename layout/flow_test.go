package layout

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"repgen/anchor"
	"repgen/common"
	"repgen/config"
	"repgen/imgcache"
	"repgen/markup"
)

// A4 with default margins: content box is 170 x 232 mm.
func testBox() PageBox {
	return NewPageBox(&config.PageConfig{
		Size:    common.PageSizeA4,
		Margins: config.MarginsConfig{Top: 33, Right: 20, Bottom: 32, Left: 20},
	})
}

func newTestFlow(t *testing.T, images *imgcache.Cache, observers ...Observer) *Flow {
	t.Helper()
	return New(testBox(), MonoMeasurer{Advance: 2}, images, DefaultStyle(), zaptest.NewLogger(t), observers...)
}

func testImages(t *testing.T, sizes map[string][2]int) *imgcache.Cache {
	t.Helper()
	files := make(map[string][]byte)
	for ref, sz := range sizes {
		img := image.NewRGBA(image.Rect(0, 0, sz[0], sz[1]))
		for y := range sz[1] {
			for x := range sz[0] {
				img.Set(x, y, color.RGBA{100, 150, 200, 255})
			}
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			t.Fatal(err)
		}
		files[ref] = buf.Bytes()
	}
	cfg := &config.ImagesConfig{Concurrency: 2, Timeout: 5 * time.Second, MaxDimension: 4000, Resize: common.ImageResizeModeKeepAR, JPEGQuality: 85}
	fetch := imgcache.FetcherFunc(func(_ context.Context, ref string) ([]byte, error) {
		return files[ref], nil
	})
	refs := make([]string, 0, len(files))
	for ref := range files {
		refs = append(refs, ref)
	}
	return imgcache.NewResolver(cfg, fetch, zaptest.NewLogger(t)).Resolve(context.Background(), refs)
}

func para(text string) *markup.Paragraph {
	return &markup.Paragraph{Runs: []markup.StyleRun{{Text: text}}}
}

// checkBounds verifies every block which is not flagged oversized stays
// inside the content box.
func checkBounds(t *testing.T, pages []*Page, box PageBox) {
	t.Helper()
	for _, p := range pages {
		if p.Kind == PageCover {
			continue
		}
		for i, b := range p.Blocks {
			if b.Oversized {
				continue
			}
			if b.Y < box.ContentTop()-epsilon || b.Bottom() > box.ContentBottom()+epsilon {
				t.Errorf("page %d block %d (%s) spans %.2f-%.2f outside content box %.2f-%.2f",
					p.Number, i, b.Kind, b.Y, b.Bottom(), box.ContentTop(), box.ContentBottom())
			}
		}
	}
}

func countBlocks(pages []*Page, kind BlockKind) int {
	n := 0
	for _, p := range pages {
		for _, b := range p.Blocks {
			if b.Kind == kind {
				n++
			}
		}
	}
	return n
}

func TestPageBox(t *testing.T) {
	b := testBox()
	if b.ContentWidth() != 170 || b.ContentHeight() != 232 || b.ContentBottom() != 265 || b.ContentRight() != 190 {
		t.Errorf("unexpected content box %+v", b)
	}
}

func TestFlow_Bound(t *testing.T) {
	images := testImages(t, map[string][2]int{"wide.jpg": {400, 100}, "tall.jpg": {100, 400}})
	f := newTestFlow(t, images)
	f.NewPage(PageContent)

	long := strings.Repeat("palavra ", 120)
	table := &markup.Table{Rows: [][]string{{"A", "B", "C"}, {"1", "2", "3"}, {"4", "5", "6"}, {"7", "8", "9"}}}
	var nodes []markup.Node
	for i := range 12 {
		nodes = append(nodes,
			&markup.Heading{Text: "Título da seção", Level: 1 + i%2},
			para(long),
			&markup.ListItem{Text: long[:200], Kind: markup.Numbered, Index: i + 1},
			&markup.Image{Ref: "wide.jpg"},
			&markup.Image{Ref: "tall.jpg"},
			&markup.Image{Ref: "missing.jpg"},
			table,
			&markup.Spacer{Height: 4},
		)
	}
	f.Nodes(nodes)
	f.PhotoGroup("Sala", []Photo{{Ref: "wide.jpg", Caption: "L1 - Sala - Fig:0001"}, {Ref: "tall.jpg"}, {Ref: "missing.jpg"}}, "")
	f.Banner("LINDEIRO 1: CASA – RESIDENCIAL")
	f.Fields([]Field{{"Endereço", long[:300]}, {"Telefone", ""}})
	f.Text(long, 9, 4.5, 4)

	if len(f.Pages()) < 10 {
		t.Fatalf("expected long document, got %d pages", len(f.Pages()))
	}
	checkBounds(t, f.Pages(), f.Box())
	if len(f.Oversized()) != 0 {
		t.Errorf("unexpected oversized blocks: %v", f.Oversized())
	}
	for i, p := range f.Pages() {
		if p.Number != i+1 {
			t.Errorf("page %d has number %d", i+1, p.Number)
		}
	}
}

func TestFlow_ParagraphSplitsAcrossPages(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)

	// 60 lines, 46 fit on 232mm page at 5mm per line
	lines := make([]string, 60)
	for i := range lines {
		lines[i] = "linha"
	}
	f.Nodes([]markup.Node{para(strings.Join(lines, "\n"))})

	pages := f.Pages()
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if n := len(pages[0].Blocks); n != 46 {
		t.Errorf("first page has %d lines, want 46", n)
	}
	if n := len(pages[1].Blocks); n != 14 {
		t.Errorf("second page has %d lines, want 14", n)
	}
	if y := pages[1].Blocks[0].Y; y != f.Box().ContentTop() {
		t.Errorf("continuation starts at %v, want content top", y)
	}
}

func TestFlow_AtomicMovesToNextPage(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	f.Nodes([]markup.Node{para("antes")})
	f.Gap(194)

	// 5 rows: 38mm, only 32mm left
	rows := [][]string{{"h1", "h2"}, {"a", "b"}, {"c", "d"}, {"e", "f"}, {"g", "h"}}
	f.Nodes([]markup.Node{&markup.Table{Rows: rows}})

	pages := f.Pages()
	if len(pages) != 2 || len(pages[0].Blocks) != 1 || len(pages[1].Blocks) != 1 {
		t.Fatalf("table should move whole to second page, pages: %d", len(pages))
	}
	b := pages[1].Blocks[0]
	if b.Kind != BlockTable || b.H != 38 {
		t.Errorf("block = %s of %v mm", b.Kind, b.H)
	}
}

func TestFlow_Oversized(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	f.Nodes([]markup.Node{para("antes")})

	rows := make([][]string, 40)
	for i := range rows {
		rows[i] = []string{"x"}
	}
	f.Nodes([]markup.Node{&markup.Table{Rows: rows}, para("depois")})

	if len(f.Oversized()) != 1 {
		t.Fatalf("got %d oversized errors, want 1", len(f.Oversized()))
	}
	err := f.Oversized()[0]
	if err.Page != 2 || err.Kind != BlockTable || err.Height != 283 {
		t.Errorf("oversized error = %+v", err)
	}
	pages := f.Pages()
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	tb := pages[1].Blocks[0]
	if !tb.Oversized || tb.Y != f.Box().ContentTop() {
		t.Errorf("oversized table should start at top of fresh page and be flagged: %+v", tb)
	}
	checkBounds(t, pages, f.Box())
}

func TestFlow_LeadingSpaceDropped(t *testing.T) {
	rows := make([][]string, 40)
	for i := range rows {
		rows[i] = []string{"x"}
	}
	tests := []struct {
		name      string
		lead      []markup.Node
		rows      [][]string
		oversized bool
	}{
		{"empty paragraph before oversized table", markup.Parse("<p></p>", nil), rows, true},
		{"gap before table taller than remaining space", []markup.Node{&markup.Spacer{Height: 200}}, rows[:5], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFlow(t, nil)
			f.NewPage(PageContent)
			f.Nodes(tt.lead)
			f.Nodes([]markup.Node{&markup.Table{Rows: tt.rows}})

			pages := f.Pages()
			if len(pages) != 1 || len(pages[0].Blocks) != 1 {
				t.Fatalf("table should stay on the first page, got %d pages", len(pages))
			}
			b := pages[0].Blocks[0]
			if b.Y != f.Box().ContentTop() || b.Oversized != tt.oversized {
				t.Errorf("table at %v oversized=%v, want top %v oversized=%v", b.Y, b.Oversized, f.Box().ContentTop(), tt.oversized)
			}
			if len(f.Oversized()) != 0 && !tt.oversized {
				t.Errorf("unexpected oversized errors: %v", f.Oversized())
			}
		})
	}
}

func TestFlow_TableCellsWrap(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	// 9pt cells advance 1.8mm per rune, 82mm of text width per column
	long := strings.Repeat("x", 100)
	f.Nodes([]markup.Node{&markup.Table{Rows: [][]string{{"A", "B"}, {long, "curto"}}}})

	b := f.Pages()[0].Blocks[0]
	wantRow := 3*cellLineHeight + 2*cellPadding
	if b.H != rowHeight+wantRow+tableGap {
		t.Fatalf("table height = %v, want %v", b.H, rowHeight+wantRow+tableGap)
	}
	var text strings.Builder
	var pieces int
	for _, it := range b.Items {
		switch it := it.(type) {
		case *Rect:
			if it.Y > b.Y && it.H != wantRow {
				t.Errorf("second row cell height = %v, want %v", it.H, wantRow)
			}
		case *Text:
			if strings.HasPrefix(it.Text, "x") {
				pieces++
				text.WriteString(it.Text)
				if it.X+f.m.Width(it.Text, it.Font) > f.Box().ContentLeft()+85 {
					t.Errorf("line %q overflows its cell", it.Text)
				}
			}
		}
	}
	if pieces != 3 || text.String() != long {
		t.Errorf("cell text split into %d lines, text preserved = %v", pieces, text.String() == long)
	}
	checkBounds(t, f.Pages(), f.Box())
}

func TestFlow_ForcedBreak(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	f.Nodes([]markup.Node{para("um"), &markup.Break{}, para("dois"), &markup.Break{}})

	pages := f.Pages()
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if len(pages[0].Blocks) != 1 || len(pages[1].Blocks) != 1 || len(pages[2].Blocks) != 0 {
		t.Errorf("unexpected distribution of blocks: %d %d %d", len(pages[0].Blocks), len(pages[1].Blocks), len(pages[2].Blocks))
	}
}

func TestFlow_HeadingKeptWithNext(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	f.Nodes([]markup.Node{para("antes")})
	// 10mm left: heading (7) fits alone but not with a line (5)
	f.Gap(216)
	f.Nodes([]markup.Node{&markup.Heading{Text: "Título", Level: 1}, para("texto")})

	pages := f.Pages()
	if len(pages) != 2 || len(pages[0].Blocks) != 1 {
		t.Fatalf("heading should move to the next page")
	}
	if pages[1].Blocks[0].Kind != BlockHeading || pages[1].Blocks[1].Kind != BlockLine {
		t.Errorf("heading should be followed by its line on the same page")
	}
}

func TestFlow_Alignment(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	box := f.Box()

	f.Nodes([]markup.Node{
		&markup.Paragraph{Runs: []markup.StyleRun{{Text: "abcde"}}, Align: common.TextAlignLeft},
		&markup.Paragraph{Runs: []markup.StyleRun{{Text: "abcde"}}, Align: common.TextAlignCenter},
		&markup.Paragraph{Runs: []markup.StyleRun{{Text: "abcde"}}, Align: common.TextAlignRight},
		&markup.Paragraph{Runs: []markup.StyleRun{{Text: "abcde"}}, Align: common.TextAlignJustify},
	})

	// 5 runes, 2mm each
	want := []float64{box.ContentLeft(), box.ContentLeft() + 80, box.ContentRight() - 10, box.ContentLeft()}
	blocks := f.Pages()[0].Blocks
	for i, w := range want {
		txt := blocks[i].Items[0].(*Text)
		if math.Abs(txt.X-w) > epsilon {
			t.Errorf("paragraph %d starts at %v, want %v", i, txt.X, w)
		}
	}
}

func TestFlow_ListItems(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	f.Nodes([]markup.Node{
		&markup.ListItem{Text: "primeiro", Kind: markup.Bullet, Index: 1},
		&markup.ListItem{Text: strings.Repeat("x", 100), Kind: markup.Numbered, Index: 12},
	})

	blocks := f.Pages()[0].Blocks
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	if blocks[0].H != 5 {
		t.Errorf("single line item height = %v, want 5", blocks[0].H)
	}
	// 162mm wide text column holds 81 runes
	if blocks[1].H != 10 {
		t.Errorf("wrapped item height = %v, want 10", blocks[1].H)
	}
	marker := blocks[1].Items[0].(*Text)
	if marker.Text != "12." {
		t.Errorf("marker = %q, want 12.", marker.Text)
	}
	text := blocks[1].Items[1].(*Text)
	if text.X != f.Box().ContentLeft()+listTextIndent {
		t.Errorf("item text at %v, want indented by %v", text.X, listTextIndent)
	}
	if marker.X+f.m.Width(marker.Text, marker.Font) > text.X {
		t.Errorf("marker overlaps text")
	}
}

func TestFlow_ImageSizing(t *testing.T) {
	images := testImages(t, map[string][2]int{"wide.jpg": {400, 100}, "tall.jpg": {100, 400}})
	f := newTestFlow(t, images)
	f.NewPage(PageContent)
	f.Nodes([]markup.Node{&markup.Image{Ref: "wide.jpg"}, &markup.Image{Ref: "tall.jpg"}, &markup.Image{Ref: "nope"}})

	blocks := f.Pages()[0].Blocks
	tests := []struct {
		w, h float64
	}{
		{170, 42.5},
		{17.5, 70},
	}
	for i, tt := range tests {
		pic := blocks[i].Items[0].(*Picture)
		if math.Abs(pic.W-tt.w) > epsilon || math.Abs(pic.H-tt.h) > epsilon {
			t.Errorf("image %d is %vx%v, want %vx%v", i, pic.W, pic.H, tt.w, tt.h)
		}
		if math.Abs(blocks[i].H-(tt.h+imageGap)) > epsilon {
			t.Errorf("image %d block height %v", i, blocks[i].H)
		}
	}
	if _, ok := blocks[2].Items[0].(*Rect); !ok {
		t.Errorf("missing image should be drawn as placeholder, got %T", blocks[2].Items[0])
	}
}

func TestFlow_Table(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	f.Nodes([]markup.Node{&markup.Table{Rows: [][]string{{"A", "B"}, {"1", "2"}, {"3"}}}})

	b := f.Pages()[0].Blocks[0]
	if b.H != 3*rowHeight+tableGap {
		t.Errorf("table height = %v", b.H)
	}
	var cells, texts int
	var header, striped bool
	for _, it := range b.Items {
		switch it := it.(type) {
		case *Rect:
			cells++
			if it.W != 85 {
				t.Errorf("cell width = %v, want 85", it.W)
			}
			if it.Fill != nil && *it.Fill == f.style.Primary && it.Y == b.Y {
				header = true
			}
			if it.Fill != nil && *it.Fill == f.style.Stripe && it.Y == b.Y+2*rowHeight {
				striped = true
			}
		case *Text:
			texts++
			if it.Text == "A" && (!it.Font.Bold || it.Color != (Color{255, 255, 255})) {
				t.Errorf("header cell should be white bold")
			}
		}
	}
	if cells != 6 || texts != 5 {
		t.Errorf("got %d cells and %d texts, want 6 and 5", cells, texts)
	}
	if !header || !striped {
		t.Errorf("header inverted = %v, even row striped = %v", header, striped)
	}
}

func TestFlow_PhotoGroupPacking(t *testing.T) {
	for _, k := range []int{0, 1, 2, 3, 5} {
		t.Run(strings.Repeat("p", k), func(t *testing.T) {
			f := newTestFlow(t, nil)
			f.NewPage(PageContent)

			photos := make([]Photo, k)
			for i := range photos {
				photos[i] = Photo{Ref: "missing", Caption: "foto"}
			}
			f.PhotoGroup("Sala", photos, "(Sem fotos registradas)")

			pages := f.Pages()
			if len(pages) != 1 {
				t.Fatalf("got %d pages, want 1", len(pages))
			}
			wantRows := (k + 1) / 2
			if got := countBlocks(pages, BlockPhotoRow); got != wantRows {
				t.Errorf("got %d photo rows, want %d", got, wantRows)
			}
			if got := countBlocks(pages, BlockTitle); got != 1 {
				t.Errorf("got %d titles, want 1", got)
			}
			notes := countBlocks(pages, BlockNote)
			if (k == 0) != (notes == 1) {
				t.Errorf("got %d empty group notes for %d photos", notes, k)
			}
			cells := 0
			for _, b := range pages[0].Blocks {
				if b.Kind != BlockPhotoRow {
					continue
				}
				if b.H != photoRowHeight {
					t.Errorf("row height = %v", b.H)
				}
				for _, it := range b.Items {
					if _, ok := it.(*Rect); ok {
						cells++
					}
				}
			}
			if cells != k {
				t.Errorf("got %d photo cells, want %d", cells, k)
			}
			want := f.Box().ContentTop() + groupTitleHeight + photoRowHeight*float64(wantRows)
			if k == 0 {
				want = f.Box().ContentTop() + groupTitleHeight + groupNoteHeight
			}
			if math.Abs(f.Y()-want) > epsilon {
				t.Errorf("cursor at %v, want %v", f.Y(), want)
			}
		})
	}
}

func TestFlow_PhotoGroupContinuation(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)

	photos := make([]Photo, 10)
	for i := range photos {
		photos[i] = Photo{Ref: "x"}
	}
	f.PhotoGroup("Cozinha", photos, "")

	pages := f.Pages()
	// 9 + 3*65 = 204 on the first page, 2 rows on the second
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if countBlocks(pages[:1], BlockPhotoRow) != 3 || countBlocks(pages[1:], BlockPhotoRow) != 2 {
		t.Errorf("unexpected row distribution")
	}
	title := pages[1].Blocks[0]
	if title.Kind != BlockTitle {
		t.Fatalf("continuation page should start with title, got %s", title.Kind)
	}
	var repeated bool
	for _, it := range title.Items {
		if txt, ok := it.(*Text); ok && txt.Text == "Cozinha"+f.style.Continued {
			repeated = true
		}
	}
	if !repeated {
		t.Error("title should be repeated on continuation page")
	}
	checkBounds(t, pages, f.Box())
}

func TestFlow_PhotoGroupStartsNewPage(t *testing.T) {
	f := newTestFlow(t, nil)
	f.NewPage(PageContent)
	f.Nodes([]markup.Node{para("antes")})
	f.Gap(154) // 72mm left, title + row need 74mm

	f.PhotoGroup("Quarto", []Photo{{Ref: "x"}}, "")
	pages := f.Pages()
	if len(pages) != 2 || len(pages[0].Blocks) != 1 {
		t.Errorf("group should start on a new page")
	}
}

func TestFlow_Events(t *testing.T) {
	tr := anchor.NewTracker(zaptest.NewLogger(t))
	for _, o := range [][3]string{{"sec", "Seção", ""}, {"sub", "Sub", "sec"}, {"empty", "Vazio", "sec"}} {
		if err := tr.Open(o[0], o[1], o[2]); err != nil {
			t.Fatal(err)
		}
	}

	var events []anchor.Event
	rec := ObserverFunc(func(ev anchor.Event) { events = append(events, ev) })
	f := newTestFlow(t, nil, tr, rec)

	f.NewPage(PageContent)
	f.Enter("sec")
	f.SectionTitle("Seção")
	f.Enter("sub")
	f.Nodes([]markup.Node{para("a"), &markup.Break{}, para("b")})
	f.Leave()
	f.Enter("empty")
	f.Leave()
	f.Leave()
	f.Nodes([]markup.Node{para("fora")})

	sec, _ := tr.Get("sec")
	sub, _ := tr.Get("sub")
	empty, _ := tr.Get("empty")
	if sec.StartPage != 1 || sec.EndPage != 2 {
		t.Errorf("sec = %d-%d", sec.StartPage, sec.EndPage)
	}
	if sub.StartPage != 1 || sub.EndPage != 2 {
		t.Errorf("sub = %d-%d", sub.StartPage, sub.EndPage)
	}
	if empty.Observed() {
		t.Errorf("empty group should not be observed")
	}
	// title: sec; a: sec+sub; b: sec+sub; outside: none
	if len(events) != 5 {
		t.Errorf("got %d events, want 5: %v", len(events), events)
	}
	last := f.Pages()[1].Blocks
	if len(last[len(last)-1].Groups) != 0 {
		t.Errorf("block placed after Leave should have no groups")
	}
}

func TestFlow_LeaveWithoutEnter(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Leave without Enter should panic")
		}
	}()
	newTestFlow(t, nil).Leave()
}

func TestFlow_ContentNeverOnIndexPage(t *testing.T) {
	f := newTestFlow(t, nil)
	f.Cover(CoverContent{Brand: "MARCA", TitleLines: []string{"LAUDO"}, Placeholder: "Foto"})
	idx := f.Reserve()
	f.Nodes([]markup.Node{para("texto")})

	pages := f.Pages()
	if idx != 2 || len(pages) != 3 {
		t.Fatalf("index page %d, %d pages", idx, len(pages))
	}
	if pages[0].Kind != PageCover || pages[1].Kind != PageIndex || pages[2].Kind != PageContent {
		t.Errorf("page kinds = %s %s %s", pages[0].Kind, pages[1].Kind, pages[2].Kind)
	}
	if len(pages[1].Blocks) != 0 {
		t.Error("index page should stay empty")
	}
}

func TestFlow_FullPageImage(t *testing.T) {
	images := testImages(t, map[string][2]int{"croqui.jpg": {300, 200}})
	f := newTestFlow(t, images)
	f.FullPageImage("Planta", "croqui.jpg", "Croqui de localização")

	pages := f.Pages()
	if len(pages) != 1 || len(pages[0].Blocks) != 1 {
		t.Fatalf("image should take one page")
	}
	var pic *Picture
	for _, it := range pages[0].Blocks[0].Items {
		if p, ok := it.(*Picture); ok {
			pic = p
		}
	}
	if pic == nil {
		t.Fatal("no picture placed")
	}
	if math.Abs(pic.W-170) > epsilon || math.Abs(pic.H-170*2.0/3) > epsilon {
		t.Errorf("picture is %vx%v", pic.W, pic.H)
	}
	checkBounds(t, pages, f.Box())
}

func TestDocument_Finalize(t *testing.T) {
	f := newTestFlow(t, nil)
	f.Cover(CoverContent{Brand: "MARCA"})
	f.Reserve()
	f.TitlePage("Anexo")

	doc := f.Document()
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	doc.Finalize("Laudo", date)

	if doc.Total != 3 {
		t.Errorf("total = %d", doc.Total)
	}
	if doc.Pages[0].Footer != nil {
		t.Error("cover should have no footer")
	}
	ft := doc.Pages[2].Footer
	if ft == nil || ft.Page != 3 || ft.Total != 3 || ft.Title != "Laudo" || !ft.Date.Equal(date) {
		t.Errorf("footer = %+v", ft)
	}
	if err := doc.Check(); err != nil {
		t.Errorf("Check() error = %v", err)
	}
	if err := doc.Fill(2, []*Block{{Kind: BlockIndex}}); err != nil || len(doc.Pages[1].Blocks) != 1 {
		t.Errorf("Fill() error = %v", err)
	}
	if err := doc.Fill(4, nil); err == nil {
		t.Error("Fill() of missing page should fail")
	}

	doc.Pages = append(doc.Pages, &Page{Number: 9})
	if err := doc.Check(); err == nil {
		t.Error("Check() should detect broken numbering")
	}
}
