// Package toc builds the index page once page ranges of all groups are
// known.
package toc

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"repgen/anchor"
	"repgen/layout"
)

// Options are index labels.
type Options struct {
	Title     string
	Separator string
}

const (
	titleHeight = 14.0
	titleSize   = 14.0
	entryHeight = 6.5
	entrySize   = 10.0
	indentStep  = 6.0
	leaderGap   = 1.5
)

// Build produces blocks of the index page. Index always occupies exactly one
// page: entries which do not fit are dropped.
func Build(anchors []*anchor.Anchor, total int, box layout.PageBox, m layout.Measurer, style layout.Style, opts Options, log *zap.Logger) *layout.Page {
	log = log.Named("toc")
	page := &layout.Page{Kind: layout.PageIndex}

	top := box.ContentTop()
	titleFont := layout.Font{Size: titleSize, Bold: true, Underline: true}
	title := layout.Fit(m, opts.Title, titleFont, box.ContentWidth())
	page.Blocks = append(page.Blocks, &layout.Block{
		Kind: layout.BlockTitle,
		Y:    top,
		H:    titleHeight,
		Items: []layout.Item{&layout.Text{
			X:     box.ContentLeft() + (box.ContentWidth()-m.Width(title, titleFont))/2,
			Y:     layout.Baseline(top, titleHeight, titleSize),
			Text:  title,
			Font:  titleFont,
			Color: style.Primary,
		}},
	})

	// numbers column is as wide as the widest possible range
	widest := strconv.Itoa(total) + opts.Separator + strconv.Itoa(total)
	numW := m.Width(widest, layout.Font{Size: entrySize, Bold: true})

	y := top + titleHeight
	placed, dropped := 0, 0
	anchor.Walk(anchors, func(a *anchor.Anchor, depth int) bool {
		if !a.Observed() {
			return true
		}
		if y+entryHeight > box.ContentBottom() {
			dropped++
			return true
		}
		if a.StartPage > total || a.EndPage > total {
			log.Warn("Anchor points past the last page", zap.String("id", a.ID), zap.Int("start", a.StartPage), zap.Int("end", a.EndPage), zap.Int("total", total))
		}
		page.Blocks = append(page.Blocks, entry(a, depth, y, numW, box, m, style, opts))
		y += entryHeight
		placed++
		return true
	})
	if dropped > 0 {
		log.Warn("Index does not fit on a single page, entries dropped", zap.Int("placed", placed), zap.Int("dropped", dropped))
	}
	log.Debug("Index built", zap.Int("entries", placed), zap.Int("total", total))
	return page
}

// Range returns page reference text for anchor.
func Range(a *anchor.Anchor, sep string) string {
	if a.EndPage > a.StartPage {
		return strconv.Itoa(a.StartPage) + sep + strconv.Itoa(a.EndPage)
	}
	return strconv.Itoa(a.StartPage)
}

func hasObservedChildren(a *anchor.Anchor) bool {
	for _, c := range a.Children {
		if c.Observed() {
			return true
		}
	}
	return false
}

func entry(a *anchor.Anchor, depth int, top, numW float64, box layout.PageBox, m layout.Measurer, style layout.Style, opts Options) *layout.Block {
	font := layout.Font{Size: entrySize, Bold: depth == 0 && hasObservedChildren(a)}
	baseline := layout.Baseline(top, entryHeight, entrySize)
	x := box.ContentLeft() + indentStep*float64(depth)

	num := Range(a, opts.Separator)
	nw := m.Width(num, font)
	numX := box.ContentRight() - nw

	label := layout.Fit(m, a.Label, font, box.ContentRight()-numW-2*leaderGap-x)
	items := []layout.Item{
		&layout.Text{X: x, Y: baseline, Text: label, Font: font, Color: style.Text},
		&layout.Text{X: numX, Y: baseline, Text: num, Font: font, Color: style.Text},
	}

	// dotted leader between label and number
	dotFont := layout.Font{Size: entrySize}
	if dw := m.Width(".", dotFont); dw > 0 {
		from := x + m.Width(label, font) + leaderGap
		to := numX - leaderGap
		if n := int(math.Floor((to - from) / dw)); n > 0 {
			items = append(items, &layout.Text{X: to - float64(n)*dw, Y: baseline, Text: strings.Repeat(".", n), Font: dotFont, Color: style.Muted})
		}
	}

	return &layout.Block{Kind: layout.BlockIndex, Y: top, H: entryHeight, Items: items}
}
