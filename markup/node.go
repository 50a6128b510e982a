// Package markup turns rich text of report sections into a flat sequence of
// content nodes the layout engine understands.
package markup

import (
	"strconv"
	"strings"

	"repgen/common"
)

// StyleRun is a piece of text with uniform face. "\n" inside Text is a hard
// line break.
type StyleRun struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

func (r StyleRun) sameStyle(o StyleRun) bool {
	return r.Bold == o.Bold && r.Italic == o.Italic && r.Underline == o.Underline
}

// Node is a closed set of content nodes. Every type switch over Node must
// handle all of: *Heading, *Paragraph, *ListItem, *Image, *Table, *Break,
// *Spacer.
type Node interface {
	node()
}

type ListKind int

const (
	Bullet ListKind = iota
	Numbered
)

type (
	Heading struct {
		Text  string
		Level int // 1 or 2
		Align common.TextAlign
	}

	Paragraph struct {
		Runs  []StyleRun
		Align common.TextAlign
	}

	ListItem struct {
		Text  string
		Kind  ListKind
		Index int // 1 based position in its list
	}

	Image struct {
		Ref string
	}

	// Table keeps cell text row by row, first row is the header.
	Table struct {
		Rows [][]string
	}

	// Break forces a new page.
	Break struct{}

	// Spacer is vertical space in millimeters.
	Spacer struct {
		Height float64
	}
)

func (*Heading) node()   {}
func (*Paragraph) node() {}
func (*ListItem) node()  {}
func (*Image) node()     {}
func (*Table) node()     {}
func (*Break) node()     {}
func (*Spacer) node()    {}

// Marker returns list item prefix.
func (li *ListItem) Marker() string {
	if li.Kind == Numbered {
		return strconv.Itoa(li.Index) + "."
	}
	return "•"
}

// Text returns paragraph text without styling.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Columns returns the widest row length.
func (t *Table) Columns() int {
	n := 0
	for _, r := range t.Rows {
		n = max(n, len(r))
	}
	return n
}

// Refs lists image references in document order.
func Refs(nodes []Node) []string {
	var refs []string
	for _, n := range nodes {
		if img, ok := n.(*Image); ok {
			refs = append(refs, img.Ref)
		}
	}
	return refs
}
