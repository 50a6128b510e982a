package convert

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"repgen/anchor"
	"repgen/config"
	"repgen/content"
	"repgen/convert/pdf"
	"repgen/layout"
	"repgen/report"
	"repgen/state"
)

func createTestJPEG(t *testing.T, width, height int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Document.Images.Timeout = 5 * time.Second

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
	env.Cfg = cfg
	return ctx, env
}

// writeImages puts test photos into dir and returns their names.
func writeImages(t *testing.T, dir string, n int) []string {
	t.Helper()
	names := make([]string, 0, n)
	for i := range n {
		name := filepath.Join("photos", "p"+string(rune('a'+i))+".jpg")
		full := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		data := createTestJPEG(t, 60+i*7, 40+i*3, color.RGBA{uint8(40 * i), 90, 160, 255})
		if err := os.WriteFile(full, data, 0644); err != nil {
			t.Fatal(err)
		}
		names = append(names, filepath.ToSlash(name))
	}
	return names
}

func fullReport(photos []string) *report.Report {
	room := func(name string, refs ...string) report.Room {
		r := report.Room{Name: name}
		for i, ref := range refs {
			r.Photos = append(r.Photos, report.Photo{Ref: ref, Order: len(refs) - i})
		}
		return r
	}
	return &report.Report{
		ID:    "0190d5f6-9d1c-7b8e-8b1a-3c4d5e6f7a8b",
		Title: "Laudo Cautelar – Edifício Aurora",
		Date:  "2024-03-15",
		Cover: report.Cover{Project: "Residencial Aurora", SiteAddress: "Rua A, 100", Requester: "Construtora Ação", Volume: 1, Volumes: 2, Photo: photos[0]},
		Texts: report.Texts{
			Introduction: "<p>Introdução do laudo.</p>",
			Object:       "Objeto",
			Objective:    strings.Repeat("<p>Objetivo com texto longo o bastante para quebrar linhas várias vezes.</p>", 60),
		},
		Neighbors: []report.Neighbor{
			{Type: "Casa", Use: "Residencial", Address: "Rua A, 98", InspectionDate: "2024-03-10", Description: "Imóvel térreo.",
				Rooms: []report.Room{room("Sala", photos[1], photos[2], photos[3]), room("", photos[4])}},
			{Type: "Prédio", Use: "Comercial", Rooms: []report.Room{room("Fachada")}},
			{Type: "Galpão", Address: "Rua A, 102", Rooms: []report.Room{room("Depósito", photos[1], photos[2])}},
		},
		Site: &report.Site{
			Address: "Rua A, 100",
			Photos: []report.SitePhoto{
				{Ref: photos[2], Category: "drone"},
				{Ref: photos[3], Category: "canteiro"},
			},
		},
		Appendices: report.Appendices{
			Sketch: report.Appendix{Collections: []report.Collection{{Name: "Croqui", Images: []report.Image{{Ref: photos[0], Caption: "Localização"}}}}},
			ART:    report.Appendix{Text: "<p>ART em anexo.</p>"},
		},
		Conclusion: "<p>Sem danos aparentes.</p>",
	}
}

func prepare(t *testing.T, ctx context.Context, rpt *report.Report, dir string) *content.Content {
	t.Helper()
	env := state.EnvFromContext(ctx)
	c, err := content.Prepare(ctx, rpt, "report.yaml", nil, dir, env.Log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return c
}

func assemble(t *testing.T, ctx context.Context, c *content.Content) *layout.Document {
	t.Helper()
	env := state.EnvFromContext(ctx)
	doc, err := Assemble(c, &env.Cfg.Document, pdf.NewMeasurer(), layout.DefaultStyle(), env.Log)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	return doc
}

func TestAssemble_Minimal(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	c := prepare(t, ctx, &report.Report{Title: "Mínimo"}, t.TempDir())
	doc := assemble(t, ctx, c)

	if doc.Total != 8 {
		t.Fatalf("minimal document has %d pages, want 8 (cover, index and six sections)", doc.Total)
	}
	if doc.Pages[0].Kind != layout.PageCover || doc.Pages[0].Footer != nil {
		t.Errorf("first page is %v with footer %v", doc.Pages[0].Kind, doc.Pages[0].Footer)
	}
	if doc.Pages[1].Kind != layout.PageIndex {
		t.Errorf("second page is %v, want index", doc.Pages[1].Kind)
	}
	if len(doc.Pages[1].Blocks) != 1+len(content.SectionKeys) {
		t.Errorf("index has %d blocks, want title and %d entries", len(doc.Pages[1].Blocks), len(content.SectionKeys))
	}
	if len(doc.Anchors) != len(content.SectionKeys) {
		t.Fatalf("got %d anchors", len(doc.Anchors))
	}
	for i, a := range doc.Anchors {
		if a.ID != content.SectionKeys[i] || a.StartPage != i+3 || a.EndPage != i+3 {
			t.Errorf("anchor %d = %s %d-%d", i, a.ID, a.StartPage, a.EndPage)
		}
	}
	for i, p := range doc.Pages[1:] {
		if p.Footer == nil || p.Footer.Page != i+2 || p.Footer.Total != 8 || p.Footer.Title != "Mínimo" {
			t.Errorf("page %d footer = %+v", i+2, p.Footer)
		}
	}
}

func TestAssemble_Full(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	dir := t.TempDir()
	c := prepare(t, ctx, fullReport(writeImages(t, dir, 5)), dir)
	doc := assemble(t, ctx, c)

	if err := anchor.Validate(doc.Anchors); err != nil {
		t.Fatalf("anchors are not monotonic: %v", err)
	}

	var ids []string
	anchor.Walk(doc.Anchors, func(a *anchor.Anchor, _ int) bool {
		ids = append(ids, a.ID)
		return true
	})
	want := []string{
		"introduction", "object", "objective", "purpose", "responsibilities", "classification",
		"neighbors",
		"neighbors/1", "neighbors/1/rooms/1", "neighbors/1/rooms/2",
		"neighbors/2", "neighbors/2/rooms/1",
		"neighbors/3", "neighbors/3/rooms/1",
		"site", "site/canteiro", "site/drone",
		"sketch", "art",
		"conclusion",
	}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Fatalf("anchors\n got %v\nwant %v", ids, want)
	}

	last := doc.Anchors[len(doc.Anchors)-1]
	if last.EndPage != doc.Total {
		t.Errorf("conclusion ends on page %d, document has %d", last.EndPage, doc.Total)
	}
	// objective text does not fit a single page
	obj := doc.Anchors[2]
	if obj.EndPage <= obj.StartPage {
		t.Errorf("objective spans %d-%d", obj.StartPage, obj.EndPage)
	}

	var labels []string
	anchor.Walk(doc.Anchors, func(a *anchor.Anchor, _ int) bool {
		labels = append(labels, a.Label)
		return true
	})
	joined := strings.Join(labels, "|")
	for _, l := range []string{"Lindeiro 1: Rua A, 98", "Lindeiro 2: Sem endereço", "Ambiente", "Sala", "Canteiro", "Drone"} {
		if !strings.Contains(joined, l) {
			t.Errorf("label %q not found in %q", l, joined)
		}
	}

	dump := doc.String()
	for _, s := range []string{"LINDEIRO 1: CASA – RESIDENCIAL", "L1 - Sala - Fig:0001", "L1 - Amb. - Fig:0001", "10/03/2024", "(Sem fotos registradas)"} {
		if !strings.Contains(dump, s) {
			t.Errorf("layout does not contain %q", s)
		}
	}
}

func TestAssemble_EmptyAppendicesSkipped(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	rpt := &report.Report{
		Title: "Apêndices",
		Appendices: report.Appendices{
			Documents: report.Appendix{Text: "   "},
			Sheets:    report.Appendix{Collections: []report.Collection{{Name: "Ficha", Images: []report.Image{{Ref: "missing.jpg"}}}}},
		},
	}
	doc := assemble(t, ctx, prepare(t, ctx, rpt, t.TempDir()))

	var ids []string
	for _, a := range doc.Anchors {
		ids = append(ids, a.ID)
	}
	if got := ids[len(ids)-1]; got != "sheets" {
		t.Errorf("last anchor %q, want sheets (documents is empty)", got)
	}
	// title page and one page for unresolved image
	if doc.Total != 10 {
		t.Errorf("document has %d pages, want 10", doc.Total)
	}
}

func TestAssemble_DuplicateGroup(t *testing.T) {
	ctx, env := setupTestEnv(t)
	c := prepare(t, ctx, &report.Report{}, t.TempDir())
	c.Sections = append(c.Sections, c.Sections[0])

	_, err := Assemble(c, &env.Cfg.Document, pdf.NewMeasurer(), layout.DefaultStyle(), env.Log)
	var ae *AssemblyError
	if !errors.As(err, &ae) || ae.Op != "sections" {
		t.Fatalf("Assemble() error = %v, want sections AssemblyError", err)
	}
}

func TestAssemble_UnknownSection(t *testing.T) {
	ctx, env := setupTestEnv(t)
	c := prepare(t, ctx, &report.Report{Title: "Extra"}, t.TempDir())
	for _, key := range []string{"memorial", "anexo"} {
		c.Sections = append(c.Sections, content.Section{Key: key})
	}

	doc, err := Assemble(c, &env.Cfg.Document, pdf.NewMeasurer(), layout.DefaultStyle(), env.Log)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if n := len(doc.Anchors); n != len(content.SectionKeys)+2 {
		t.Fatalf("got %d anchors, want %d", n, len(content.SectionKeys)+2)
	}
	if a := doc.Anchors[len(content.SectionKeys)]; a.ID != "memorial" || a.Label != "memorial" {
		t.Errorf("extra section anchor = %s %q", a.ID, a.Label)
	}
	if doc.Anchors[0].Label != env.Cfg.Document.Sections.Introduction {
		t.Errorf("introduction label = %q", doc.Anchors[0].Label)
	}
}

func TestAssemble_AppendixTextTitle(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	rpt := &report.Report{
		Title:      "Apêndice",
		Appendices: report.Appendices{ART: report.Appendix{Text: "<p>ART em anexo.</p>"}},
	}
	doc := assemble(t, ctx, prepare(t, ctx, rpt, t.TempDir()))

	// cover, index, six sections, title page, text page
	if doc.Total != 10 {
		t.Fatalf("document has %d pages, want 10", doc.Total)
	}
	var sb strings.Builder
	for _, it := range doc.Pages[9].Blocks[0].Items {
		if txt, ok := it.(*layout.Text); ok {
			sb.WriteString(txt.Text)
		}
	}
	if got := sb.String(); got != "ART – Anotação de Responsabilidade Técnica" {
		t.Errorf("text page starts with %q", got)
	}
}

func TestWithoutNumeral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"VIII. Croqui de Localização", "Croqui de Localização"},
		{"XI. Fichas de Vistoria", "Fichas de Vistoria"},
		{"Anexo. Fotos", "Anexo. Fotos"},
		{"Conclusão", "Conclusão"},
		{". Vazio", ". Vazio"},
	}
	for _, tt := range tests {
		if got := withoutNumeral(tt.in); got != tt.want {
			t.Errorf("withoutNumeral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"2024-03-10", "10/03/2024"},
		{"ontem", "ontem"},
	}
	for _, tt := range tests {
		if got := displayDate(tt.in, "02/01/2006"); got != tt.want {
			t.Errorf("displayDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerate(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	dir := t.TempDir()
	rpt := fullReport(writeImages(t, dir, 5))

	generate := func() (string, []byte) {
		var (
			name string
			data []byte
		)
		c := prepare(t, ctx, rpt, dir)
		err := Generate(ctx, c, SinkFunc(func(_ context.Context, n string, d []byte) error {
			name, data = n, d
			return nil
		}))
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		return name, data
	}

	name, first := generate()
	if name != "Laudo_Cautelar_Edifcio_Aurora.pdf" {
		t.Errorf("file name = %q", name)
	}
	if !bytes.HasPrefix(first, []byte("%PDF-")) {
		t.Fatal("result is not PDF")
	}
	_, second := generate()
	if !bytes.Equal(first, second) {
		t.Error("two generations of the same report differ")
	}

	c := prepare(t, ctx, rpt, dir)
	doc := assemble(t, ctx, c)
	if got := bytes.Count(first, []byte("<</Type /Page\n")); got != doc.Total {
		t.Errorf("PDF has %d pages, layout has %d", got, doc.Total)
	}
}

func TestGenerate_SinkError(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	c := prepare(t, ctx, &report.Report{Title: "x"}, t.TempDir())
	want := errors.New("disk full")
	err := Generate(ctx, c, SinkFunc(func(context.Context, string, []byte) error { return want }))
	if !errors.Is(err, want) {
		t.Fatalf("Generate() error = %v, want %v", err, want)
	}
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	c := prepare(t, ctx, &report.Report{}, t.TempDir())
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	called := false
	err := Generate(ctx, c, SinkFunc(func(context.Context, string, []byte) error {
		called = true
		return nil
	}))
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("Generate() error = %v, sink called %v", err, called)
	}
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	s := NewFileSink(dir, "", false, log)
	if err := s.Accept(ctx, "sub/a.pdf", []byte("one")); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if s.Written != filepath.Join(dir, "sub", "a.pdf") {
		t.Errorf("Written = %q", s.Written)
	}
	if err := s.Accept(ctx, "sub/a.pdf", []byte("two")); err == nil {
		t.Error("existing file overwritten without permission")
	}

	s.Overwrite = true
	if err := s.Accept(ctx, "sub/a.pdf", []byte("two")); err != nil {
		t.Fatalf("Accept() with overwrite error = %v", err)
	}
	if data, _ := os.ReadFile(s.Written); string(data) != "two" {
		t.Errorf("file content %q", data)
	}

	explicit := filepath.Join(dir, "out", "fixed.pdf")
	s = NewFileSink(dir, explicit, false, log)
	if err := s.Accept(ctx, "ignored.pdf", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if s.Written != explicit {
		t.Errorf("Written = %q, want %q", s.Written, explicit)
	}
}
