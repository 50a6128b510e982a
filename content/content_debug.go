package content

import (
	"fmt"
	"sort"

	"github.com/maruel/natural"

	"repgen/markup"
	"repgen/utils/debug"
)

var appendixKeys = []string{"sketch", "art", "documents", "sheets"}

// String returns a readable tree of the whole Content. It exists solely for
// manual inspection during debugging.
func (c *Content) String() string {
	if c == nil {
		return "<nil Content>"
	}

	tw := debug.NewTreeWriter()
	tw.TextBlock(0, "Source", c.SrcName)
	if c.Report != nil {
		tw.TextBlock(0, "Report ID", c.Report.ID)
		tw.TextBlock(0, "Title", c.Report.Title)
	}
	tw.Line(0, "Date: %s", c.Date.Format("2006-01-02"))

	for _, s := range c.Sections {
		tw.Line(0, "Section %q: %d nodes", s.Key, len(s.Nodes))
		markup.Dump(tw, 1, s.Nodes)
	}
	for i, nodes := range c.Appendices {
		if len(nodes) == 0 {
			continue
		}
		tw.Line(0, "Appendix %q text: %d nodes", appendixKeys[i], len(nodes))
		markup.Dump(tw, 1, nodes)
	}
	if len(c.Conclusion) > 0 {
		tw.Line(0, "Conclusion: %d nodes", len(c.Conclusion))
		markup.Dump(tw, 1, c.Conclusion)
	}

	if c.Images != nil {
		images := make(map[string]string, c.Images.Len())
		for _, ref := range c.Images.Refs() {
			e, _ := c.Images.Get(ref)
			images[short(ref)] = e.Format + " " + dim(e.Width, e.Height)
		}
		tw.Map(0, "Images", images)

		failed := c.Images.Failed()
		sort.Sort(natural.StringSlice(failed))
		tw.Line(0, "Failed images (%d entries)", len(failed))
		for _, ref := range failed {
			tw.TextBlock(1, short(ref), c.Images.Err(ref).Error())
		}
	}
	return tw.String()
}

func dim(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}

// data URLs would make dump unreadable
func short(ref string) string {
	if len(ref) <= 64 {
		return ref
	}
	return ref[:61] + "..."
}
