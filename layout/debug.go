package layout

import (
	"fmt"
	"strings"

	"repgen/anchor"
	"repgen/utils/debug"
)

// String returns readable tree of laid out document for debug reports.
func (d *Document) String() string {
	if d == nil {
		return "<nil Document>"
	}
	tw := debug.NewTreeWriter()
	tw.Line(0, "Document: %d pages, total %d, date %s", len(d.Pages), d.Total, d.Date.Format("2006-01-02"))
	tw.TextBlock(0, "Title", d.Title)

	tw.Line(0, "Anchors")
	anchor.Walk(d.Anchors, func(a *anchor.Anchor, depth int) bool {
		tw.TextBlock(depth+1, fmt.Sprintf("%s pages %d-%d", a.ID, a.StartPage, a.EndPage), a.Label)
		return true
	})

	for _, p := range d.Pages {
		tw.Line(0, "Page %d (%s) blocks=%d", p.Number, p.Kind, len(p.Blocks))
		for i, b := range p.Blocks {
			flag := ""
			if b.Oversized {
				flag = " OVERSIZED"
			}
			tw.Line(1, "Block[%d] %s y=%.1f h=%.1f groups=[%s]%s", i, b.Kind, b.Y, b.H, strings.Join(b.Groups, ","), flag)
			for _, it := range b.Items {
				dumpItem(tw, 2, it)
			}
		}
	}
	return tw.String()
}

func dumpItem(tw *debug.TreeWriter, depth int, it Item) {
	switch it := it.(type) {
	case *Text:
		tw.TextBlock(depth, fmt.Sprintf("Text (%.1f,%.1f) %.1fpt%s", it.X, it.Y, it.Font.Size, fontFlags(it.Font)), it.Text)
	case *Rect:
		tw.Line(depth, "Rect (%.1f,%.1f) %.1fx%.1f fill=%t stroke=%t", it.X, it.Y, it.W, it.H, it.Fill != nil, it.Stroke != nil)
	case *Line:
		tw.Line(depth, "Line (%.1f,%.1f)-(%.1f,%.1f)", it.X1, it.Y1, it.X2, it.Y2)
	case *Picture:
		tw.TextBlock(depth, fmt.Sprintf("Picture (%.1f,%.1f) %.1fx%.1f", it.X, it.Y, it.W, it.H), it.Ref)
	default:
		panic(fmt.Sprintf("layout: unexpected item %T", it))
	}
}

func fontFlags(f Font) string {
	var s string
	if f.Bold {
		s += " B"
	}
	if f.Italic {
		s += " I"
	}
	if f.Underline {
		s += " U"
	}
	return s
}
