package layout

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"repgen/anchor"
	"repgen/common"
	"repgen/imgcache"
	"repgen/markup"
)

// Observer receives placement events as blocks are placed.
type Observer interface {
	Observe(anchor.Event)
}

// ObserverFunc adapts ordinary function to Observer.
type ObserverFunc func(anchor.Event)

func (f ObserverFunc) Observe(ev anchor.Event) { f(ev) }

// Geometry of content nodes, millimeters.
const (
	lineHeight     = 5.0
	paragraphGap   = 1.0
	h1Height       = 7.0
	h1Size         = 13.0
	h2Height       = 6.0
	h2Size         = 11.0
	imageMaxHeight = 70.0
	imageGap       = 5.0
	rowHeight      = 7.0
	cellLineHeight = 4.0
	cellPadding    = 1.5
	tableGap       = 3.0
	tableSize      = 9.0
	listIndent     = 4.0
	listTextIndent = 8.0

	// tolerance for floating point accumulation
	epsilon = 0.001
)

// Flow keeps layout cursor: current page and vertical position inside its
// content box, plus stack of entered groups.
type Flow struct {
	box       PageBox
	m         Measurer
	images    *imgcache.Cache
	style     Style
	log       *zap.Logger
	observers []Observer

	pages     []*Page
	page      *Page
	y         float64
	groups    []string
	oversized []*OversizedError
}

func New(box PageBox, m Measurer, images *imgcache.Cache, style Style, log *zap.Logger, observers ...Observer) *Flow {
	return &Flow{
		box:       box,
		m:         m,
		images:    images,
		style:     style,
		log:       log.Named("layout"),
		observers: observers,
	}
}

// Pages returns pages produced so far.
func (f *Flow) Pages() []*Page {
	return f.pages
}

// Page returns current page number, 0 before the first page.
func (f *Flow) Page() int {
	if f.page == nil {
		return 0
	}
	return f.page.Number
}

// Y returns current cursor position.
func (f *Flow) Y() float64 {
	return f.y
}

// Box returns page geometry.
func (f *Flow) Box() PageBox {
	return f.box
}

// Oversized returns all atomic blocks which did not fit into a page.
func (f *Flow) Oversized() []*OversizedError {
	return f.oversized
}

// Document wraps produced pages, it still has to be finalized.
func (f *Flow) Document() *Document {
	return &Document{Pages: f.pages, Box: f.box}
}

// Enter makes every following block part of group until matching Leave.
func (f *Flow) Enter(group string) {
	f.groups = append(f.groups, group)
}

// Leave closes most recently entered group.
func (f *Flow) Leave() {
	if len(f.groups) == 0 {
		panic("layout: Leave without Enter")
	}
	f.groups = f.groups[:len(f.groups)-1]
}

// NewPage starts a new page of requested kind.
func (f *Flow) NewPage(kind PageKind) *Page {
	f.page = &Page{Number: len(f.pages) + 1, Kind: kind}
	f.pages = append(f.pages, f.page)
	f.y = f.box.ContentTop()
	return f.page
}

// Gap moves cursor down. Space beyond the content box is not carried to the
// next page.
func (f *Flow) Gap(h float64) {
	f.y = min(f.y+h, f.box.ContentBottom())
}

// Remaining returns space left on current page.
func (f *Flow) Remaining() float64 {
	if f.page == nil {
		return 0
	}
	return f.box.ContentBottom() - f.y
}

func (f *Flow) fits(h float64) bool {
	return f.page != nil && f.y+h <= f.box.ContentBottom()+epsilon
}

// ensure starts a new content page unless h fits on the current one. Page
// without blocks is never left: leading gaps are dropped instead and block
// starts at the top, flagged later when it is oversized.
func (f *Flow) ensure(h float64) {
	switch {
	case f.page == nil || f.page.Kind != PageContent:
		f.NewPage(PageContent)
	case f.fits(h):
	case len(f.page.Blocks) == 0:
		f.y = f.box.ContentTop()
	default:
		f.NewPage(PageContent)
	}
}

func (f *Flow) place(b *Block) {
	b.Groups = slices.Clone(f.groups)
	f.page.Blocks = append(f.page.Blocks, b)
	f.y = b.Y + b.H
	for _, g := range f.groups {
		ev := anchor.Event{Group: g, Page: f.page.Number}
		for _, o := range f.observers {
			o.Observe(ev)
		}
	}
}

// placeAtomic puts block of height h which may not be split, starting a new
// page when necessary.
func (f *Flow) placeAtomic(kind BlockKind, h float64, build func(top float64) []Item) *Block {
	f.ensure(h)
	top := f.y
	b := &Block{Kind: kind, Y: top, H: h, Items: build(top)}
	if top+h > f.box.ContentBottom()+epsilon {
		b.Oversized = true
		err := &OversizedError{Kind: kind, Page: f.page.Number, Height: h, Available: f.box.ContentHeight()}
		f.oversized = append(f.oversized, err)
		f.log.Warn("Oversized element placed with overflow", zap.Error(err))
	}
	f.place(b)
	return b
}

// Nodes lays out content nodes in order.
func (f *Flow) Nodes(nodes []markup.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *markup.Heading:
			f.heading(n)
		case *markup.Paragraph:
			f.paragraph(n)
		case *markup.ListItem:
			f.listItem(n)
		case *markup.Image:
			f.image(n.Ref)
		case *markup.Table:
			f.table(n)
		case *markup.Break:
			f.NewPage(PageContent)
		case *markup.Spacer:
			if f.page == nil || f.page.Kind != PageContent {
				f.NewPage(PageContent)
			}
			f.Gap(n.Height)
		default:
			panic(fmt.Sprintf("layout: unexpected content node %T", n))
		}
	}
}

func (f *Flow) alignX(align common.TextAlign, width float64) float64 {
	switch align {
	case common.TextAlignCenter:
		return f.box.ContentLeft() + (f.box.ContentWidth()-width)/2
	case common.TextAlignRight:
		return f.box.ContentRight() - width
	default:
		return f.box.ContentLeft()
	}
}

func (f *Flow) lineItems(l line, x, top, lh float64, color Color) []Item {
	items := make([]Item, 0, len(l.spans))
	for _, s := range l.spans {
		items = append(items, &Text{X: x, Y: Baseline(top, lh, s.font.Size), Text: s.text, Font: s.font, Color: color})
		x += s.width
	}
	return items
}

// lines places wrapped lines one by one, breaking pages between them.
func (f *Flow) lines(lines []line, align common.TextAlign, lh float64, color Color) {
	for _, l := range lines {
		f.ensure(lh)
		top := f.y
		f.place(&Block{Kind: BlockLine, Y: top, H: lh, Items: f.lineItems(l, f.alignX(align, l.width), top, lh, color)})
	}
}

func (f *Flow) paragraph(p *markup.Paragraph) {
	f.lines(wrap(f.m, p.Runs, f.style.BodySize, f.box.ContentWidth()), p.Align, lineHeight, f.style.Text)
	f.Gap(paragraphGap)
}

func (f *Flow) heading(h *markup.Heading) {
	lh, size := h2Height, h2Size
	if h.Level == 1 {
		lh, size = h1Height, h1Size
	}
	lines := wrapPlain(f.m, h.Text, Font{Size: size, Bold: true}, f.box.ContentWidth())
	height := lh * float64(len(lines))

	// keep with at least one following line
	f.ensure(height + lineHeight)
	f.placeAtomic(BlockHeading, height, func(top float64) []Item {
		var items []Item
		for i, l := range lines {
			items = append(items, f.lineItems(l, f.alignX(h.Align, l.width), top+lh*float64(i), lh, f.style.Primary)...)
		}
		return items
	})
}

func (f *Flow) listItem(li *markup.ListItem) {
	font := Font{Size: f.style.BodySize}
	lines := wrapPlain(f.m, li.Text, font, f.box.ContentWidth()-listTextIndent)
	if len(lines) == 0 {
		lines = []line{{}}
	}
	marker := li.Marker()
	f.placeAtomic(BlockListItem, lineHeight*float64(len(lines)), func(top float64) []Item {
		left := f.box.ContentLeft()
		items := []Item{&Text{
			X:     left + listTextIndent - 1 - f.m.Width(marker, font),
			Y:     Baseline(top, lineHeight, font.Size),
			Text:  marker,
			Font:  font,
			Color: f.style.Text,
		}}
		for i, l := range lines {
			items = append(items, f.lineItems(l, left+listTextIndent, top+lineHeight*float64(i), lineHeight, f.style.Text)...)
		}
		return items
	})
}

// fitBox scales w x h proportionally to fit into maxW x maxH.
func fitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	s := min(maxW/w, maxH/h)
	return w * s, h * s
}

// picture returns drawables for image ref fitted into box, placeholder when
// the image is not available.
func (f *Flow) picture(ref string, x, y, maxW, maxH float64, center bool) ([]Item, float64) {
	e, ok := f.images.Get(ref)
	if !ok {
		return f.placeholder(x, y, maxW, maxH, f.style.MissingImage), maxH
	}
	w, h := fitBox(float64(e.Width), float64(e.Height), maxW, maxH)
	px, py := x, y
	if center {
		px += (maxW - w) / 2
		py += (maxH - h) / 2
	}
	return []Item{&Picture{X: px, Y: py, W: w, H: h, Ref: ref}}, h
}

func (f *Flow) placeholder(x, y, w, h float64, label string) []Item {
	fill, stroke := f.style.TitleBar, f.style.Missing
	items := []Item{&Rect{X: x, Y: y, W: w, H: h, Fill: &fill, Stroke: &stroke, LineWidth: 0.3}}
	if len(label) > 0 {
		font := Font{Size: f.style.SmallSize, Italic: true}
		label = Fit(f.m, label, font, w-2)
		items = append(items, &Text{
			X:     x + (w-f.m.Width(label, font))/2,
			Y:     Baseline(y, h, font.Size),
			Text:  label,
			Font:  font,
			Color: f.style.Muted,
		})
	}
	return items
}

func (f *Flow) image(ref string) {
	cw := f.box.ContentWidth()
	w, h := cw, imageMaxHeight/2
	if e, ok := f.images.Get(ref); ok {
		w = cw
		h = w * e.Aspect()
		if h > imageMaxHeight {
			h = imageMaxHeight
			w = h / e.Aspect()
		}
	}
	f.placeAtomic(BlockImage, h+imageGap, func(top float64) []Item {
		items, _ := f.picture(ref, f.box.ContentLeft()+(cw-w)/2, top, w, h, false)
		return items
	})
}

// table rows grow to hold wrapped cell text, rows are never split.
func (f *Flow) table(t *markup.Table) {
	cols := t.Columns()
	if cols == 0 {
		return
	}
	colW := f.box.ContentWidth() / float64(cols)

	cells := make([][][]line, len(t.Rows))
	heights := make([]float64, len(t.Rows))
	height := tableGap
	for r, row := range t.Rows {
		font := Font{Size: tableSize, Bold: r == 0}
		cells[r] = make([][]line, len(row))
		n := 1
		for c, text := range row {
			cells[r][c] = wrapPlain(f.m, text, font, colW-2*cellPadding)
			n = max(n, len(cells[r][c]))
		}
		heights[r] = max(rowHeight, cellLineHeight*float64(n)+2*cellPadding)
		height += heights[r]
	}

	f.placeAtomic(BlockTable, height, func(top float64) []Item {
		var items []Item
		stroke := f.style.Rule
		y := top
		for r := range t.Rows {
			rh := heights[r]
			color := f.style.Text
			var fill *Color
			switch {
			case r == 0:
				fill, color = &f.style.Primary, Color{255, 255, 255}
			case r%2 == 0:
				fill = &f.style.Stripe
			}
			for c := range cols {
				x := f.box.ContentLeft() + colW*float64(c)
				items = append(items, &Rect{X: x, Y: y, W: colW, H: rh, Fill: fill, Stroke: &stroke, LineWidth: 0.2})
				if c >= len(cells[r]) {
					continue
				}
				lines := cells[r][c]
				ly := y + (rh-cellLineHeight*float64(len(lines)))/2
				for _, l := range lines {
					items = append(items, f.lineItems(l, x+cellPadding, ly, cellLineHeight, color)...)
					ly += cellLineHeight
				}
			}
			y += rh
		}
		return items
	})
}
