package layout

import (
	"fmt"
	"time"

	"repgen/anchor"
)

type BlockKind int

const (
	BlockLine BlockKind = iota
	BlockHeading
	BlockListItem
	BlockImage
	BlockTable
	BlockTitle
	BlockBanner
	BlockField
	BlockPhotoRow
	BlockNote
	BlockCover
	BlockIndex
)

var blockKindNames = [...]string{
	"line", "heading", "list-item", "image", "table", "title",
	"banner", "field", "photo-row", "note", "cover", "index",
}

func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return fmt.Sprintf("BlockKind(%d)", int(k))
}

type PageKind int

const (
	PageContent PageKind = iota
	PageCover
	PageIndex
)

func (k PageKind) String() string {
	switch k {
	case PageCover:
		return "cover"
	case PageIndex:
		return "index"
	default:
		return "content"
	}
}

// Block is one placed node or part of one, Y and H describe vertical extent
// in page coordinates.
type Block struct {
	Kind   BlockKind
	Y, H   float64
	Groups []string
	Items  []Item
	// taller than content box, overflows bottom margin
	Oversized bool
}

func (b *Block) Bottom() float64 {
	return b.Y + b.H
}

// Decor carries values for running header and footer.
type Decor struct {
	Page  int
	Total int
	Title string
	Date  time.Time
}

type Page struct {
	Number int
	Kind   PageKind
	Blocks []*Block
	// nil for pages without header and footer
	Footer *Decor
}

// Document is fully laid out report.
type Document struct {
	Pages   []*Page
	Anchors []*anchor.Anchor
	Total   int
	Title   string
	Date    time.Time
	Box     PageBox
}

// Finalize fixes page total and fills footers of all pages but cover.
func (d *Document) Finalize(title string, date time.Time) {
	d.Title, d.Date = title, date
	d.Total = len(d.Pages)
	for _, p := range d.Pages {
		if p.Kind == PageCover {
			p.Footer = nil
			continue
		}
		p.Footer = &Decor{Page: p.Number, Total: d.Total, Title: title, Date: date}
	}
}

// Fill puts blocks onto already reserved page, page count does not change.
func (d *Document) Fill(number int, blocks []*Block) error {
	if number < 1 || number > len(d.Pages) {
		return fmt.Errorf("page %d does not exist, document has %d pages", number, len(d.Pages))
	}
	d.Pages[number-1].Blocks = append(d.Pages[number-1].Blocks, blocks...)
	return nil
}

// Check verifies page numbering is contiguous from 1 and total is settled.
func (d *Document) Check() error {
	for i, p := range d.Pages {
		if p.Number != i+1 {
			return fmt.Errorf("page at position %d has number %d", i+1, p.Number)
		}
	}
	if d.Total != len(d.Pages) {
		return fmt.Errorf("document total %d does not match %d pages", d.Total, len(d.Pages))
	}
	return anchor.Validate(d.Anchors)
}
