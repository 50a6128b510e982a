package markup

import (
	"fmt"

	"repgen/utils/debug"
)

// Dump writes readable representation of nodes, used by debug reports.
func Dump(tw *debug.TreeWriter, depth int, nodes []Node) {
	for i, n := range nodes {
		switch n := n.(type) {
		case *Heading:
			tw.TextBlock(depth, fmt.Sprintf("[%d] Heading h%d align=%s", i, n.Level, n.Align), n.Text)
		case *Paragraph:
			tw.Line(depth, "[%d] Paragraph align=%s runs=%d", i, n.Align, len(n.Runs))
			for _, r := range n.Runs {
				tw.TextBlock(depth+1, "Run"+runFace(r), r.Text)
			}
		case *ListItem:
			tw.TextBlock(depth, fmt.Sprintf("[%d] ListItem %s", i, n.Marker()), n.Text)
		case *Image:
			tw.TextBlock(depth, fmt.Sprintf("[%d] Image", i), n.Ref)
		case *Table:
			tw.Line(depth, "[%d] Table rows=%d columns=%d", i, len(n.Rows), n.Columns())
			for r, row := range n.Rows {
				tw.Line(depth+1, "Row[%d] %q", r, row)
			}
		case *Break:
			tw.Line(depth, "[%d] Break", i)
		case *Spacer:
			tw.Line(depth, "[%d] Spacer %.1fmm", i, n.Height)
		default:
			panic(fmt.Sprintf("markup: unexpected node %T", n))
		}
	}
}

func runFace(r StyleRun) string {
	var s string
	if r.Bold {
		s += " bold"
	}
	if r.Italic {
		s += " italic"
	}
	if r.Underline {
		s += " underline"
	}
	return s
}
