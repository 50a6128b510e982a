package toc

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"repgen/anchor"
	"repgen/common"
	"repgen/config"
	"repgen/layout"
)

func testBox() layout.PageBox {
	return layout.NewPageBox(&config.PageConfig{
		Size:    common.PageSizeA4,
		Margins: config.MarginsConfig{Top: 33, Right: 20, Bottom: 32, Left: 20},
	})
}

var opts = Options{Title: "ÍNDICE", Separator: " a "}

func texts(b *layout.Block) []*layout.Text {
	var out []*layout.Text
	for _, it := range b.Items {
		if t, ok := it.(*layout.Text); ok {
			out = append(out, t)
		}
	}
	return out
}

func TestRange(t *testing.T) {
	tests := []struct {
		start, end int
		want       string
	}{
		{3, 3, "3"},
		{4, 9, "4 a 9"},
		{5, 0, "5"},
	}
	for _, tt := range tests {
		if got := Range(&anchor.Anchor{StartPage: tt.start, EndPage: tt.end}, " a "); got != tt.want {
			t.Errorf("Range(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	anchors := []*anchor.Anchor{
		{ID: "intro", Label: "I. Introdução", StartPage: 3, EndPage: 3},
		{ID: "neighbors", Label: "VII. Vistoria dos Lindeiros", StartPage: 9, EndPage: 14, Children: []*anchor.Anchor{
			{ID: "n1", Label: "Lindeiro 1 - Rua A, 10", StartPage: 9, EndPage: 12, Children: []*anchor.Anchor{
				{ID: "n1/r1", Label: "Sala", StartPage: 10, EndPage: 11},
			}},
			{ID: "n2", Label: "Lindeiro 2", StartPage: 13, EndPage: 14},
		}},
		{ID: "sketch", Label: "VIII. Croqui", StartPage: 0, EndPage: 0},
		{ID: "conclusion", Label: "XII. Conclusão", StartPage: 15, EndPage: 15},
	}
	box := testBox()
	m := layout.MonoMeasurer{Advance: 2}
	page := Build(anchors, 15, box, m, layout.DefaultStyle(), opts, zaptest.NewLogger(t))

	if page.Kind != layout.PageIndex {
		t.Errorf("page kind = %s", page.Kind)
	}
	// title + 6 observed entries
	if len(page.Blocks) != 7 {
		t.Fatalf("got %d blocks, want 7", len(page.Blocks))
	}
	title := texts(page.Blocks[0])[0]
	if title.Text != "ÍNDICE" || !title.Font.Underline || !title.Font.Bold {
		t.Errorf("title = %+v", title)
	}

	want := []struct {
		label string
		num   string
		bold  bool
		depth int
	}{
		{"I. Introdução", "3", false, 0},
		{"VII. Vistoria dos Lindeiros", "9 a 14", true, 0},
		{"Lindeiro 1 - Rua A, 10", "9 a 12", false, 1},
		{"Sala", "10 a 11", false, 2},
		{"Lindeiro 2", "13 a 14", false, 1},
		{"XII. Conclusão", "15", false, 0},
	}
	for i, w := range want {
		b := page.Blocks[i+1]
		ts := texts(b)
		if len(ts) != 3 {
			t.Fatalf("entry %d has %d texts, want label, number and leader", i, len(ts))
		}
		label, num, dots := ts[0], ts[1], ts[2]
		if label.Text != w.label || num.Text != w.num || label.Font.Bold != w.bold {
			t.Errorf("entry %d = %q %q bold=%v, want %+v", i, label.Text, num.Text, label.Font.Bold, w)
		}
		if wantX := box.ContentLeft() + indentStep*float64(w.depth); label.X != wantX {
			t.Errorf("entry %d indented at %v, want %v", i, label.X, wantX)
		}
		if right := num.X + m.Width(num.Text, num.Font); right < box.ContentRight()-0.001 || right > box.ContentRight()+0.001 {
			t.Errorf("entry %d number ends at %v, want right aligned", i, right)
		}
		if strings.Trim(dots.Text, ".") != "" {
			t.Errorf("entry %d leader = %q", i, dots.Text)
		}
		if dots.X < label.X+m.Width(label.Text, label.Font) || dots.X+m.Width(dots.Text, dots.Font) > num.X {
			t.Errorf("entry %d leader overlaps label or number", i)
		}
		if b.Y < box.ContentTop() || b.Bottom() > box.ContentBottom() {
			t.Errorf("entry %d outside of content box", i)
		}
	}
}

func TestBuild_Overflow(t *testing.T) {
	var anchors []*anchor.Anchor
	for i := range 100 {
		anchors = append(anchors, &anchor.Anchor{ID: strings.Repeat("a", i+1), Label: "Entrada", StartPage: i + 3, EndPage: i + 3})
	}
	box := testBox()
	page := Build(anchors, 110, box, layout.MonoMeasurer{Advance: 2}, layout.DefaultStyle(), opts, zaptest.NewLogger(t))

	// (232 - 14) / 6.5 entries fit
	if got := len(page.Blocks) - 1; got != 33 {
		t.Errorf("got %d entries, want 33", got)
	}
	last := page.Blocks[len(page.Blocks)-1]
	if last.Bottom() > box.ContentBottom() {
		t.Errorf("last entry ends at %v below content box", last.Bottom())
	}
}

func TestBuild_LongLabel(t *testing.T) {
	anchors := []*anchor.Anchor{{ID: "x", Label: strings.Repeat("muito longo ", 30), StartPage: 3, EndPage: 40}}
	box := testBox()
	m := layout.MonoMeasurer{Advance: 2}
	page := Build(anchors, 40, box, m, layout.DefaultStyle(), opts, zaptest.NewLogger(t))

	ts := texts(page.Blocks[1])
	label, num := ts[0], ts[1]
	if !strings.HasSuffix(label.Text, "…") {
		t.Errorf("long label should be truncated: %q", label.Text)
	}
	if label.X+m.Width(label.Text, label.Font) >= num.X {
		t.Errorf("label overlaps page number")
	}
}

func TestBuild_Empty(t *testing.T) {
	page := Build(nil, 2, testBox(), layout.MonoMeasurer{Advance: 2}, layout.DefaultStyle(), opts, zaptest.NewLogger(t))
	if len(page.Blocks) != 1 {
		t.Errorf("empty index should have only title, got %d blocks", len(page.Blocks))
	}
}
