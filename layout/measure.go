package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"repgen/markup"
)

// Measurer reports text width in millimeters.
type Measurer interface {
	Width(text string, f Font) float64
}

// MonoMeasurer gives every rune the same advance, Advance is in millimeters
// for 10pt text and scales with font size. Bold adds 10%.
type MonoMeasurer struct {
	Advance float64
}

func (m MonoMeasurer) Width(text string, f Font) float64 {
	w := float64(utf8.RuneCountInString(text)) * m.Advance * f.Size / 10
	if f.Bold {
		w *= 1.1
	}
	return w
}

const ellipsis = "…"

// Fit truncates text with ellipsis so it fits into width.
func Fit(m Measurer, text string, f Font, width float64) string {
	if m.Width(text, f) <= width {
		return text
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		s := strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + ellipsis
		if m.Width(s, f) <= width {
			return s
		}
	}
	return ""
}

type span struct {
	text  string
	font  Font
	width float64
}

type line struct {
	spans []span
	width float64
}

func (l line) text() string {
	var sb strings.Builder
	for _, s := range l.spans {
		sb.WriteString(s.text)
	}
	return sb.String()
}

type word struct {
	text  string
	font  Font
	space bool // white space before the word
	br    bool // hard line break, text is empty
}

func splitWords(runs []markup.StyleRun, size float64) []word {
	var (
		words   []word
		pending bool
	)
	for _, r := range runs {
		font := Font{Size: size, Bold: r.Bold, Italic: r.Italic, Underline: r.Underline}
		var sb strings.Builder
		flush := func() {
			if sb.Len() > 0 {
				words = append(words, word{text: sb.String(), font: font, space: pending})
				pending = false
				sb.Reset()
			}
		}
		for _, c := range r.Text {
			switch {
			case c == '\n':
				flush()
				words = append(words, word{br: true})
				pending = false
			case unicode.IsSpace(c):
				flush()
				pending = true
			default:
				sb.WriteRune(c)
			}
		}
		flush()
	}
	return words
}

// wrap breaks styled runs into lines no wider than width. Words longer than
// a line are split between characters.
func wrap(m Measurer, runs []markup.StyleRun, size, width float64) []line {
	words := splitWords(runs, size)
	if len(words) == 0 {
		return nil
	}

	var (
		lines []line
		cur   line
	)
	push := func() {
		lines = append(lines, cur)
		cur = line{}
	}
	add := func(text string, f Font, w float64) {
		if n := len(cur.spans); n > 0 && cur.spans[n-1].font == f {
			cur.spans[n-1].text += text
			cur.spans[n-1].width += w
		} else {
			cur.spans = append(cur.spans, span{text: text, font: f, width: w})
		}
		cur.width += w
	}

	for _, w := range words {
		if w.br {
			push()
			continue
		}
		ww := m.Width(w.text, w.font)
		gap := 0.0
		if w.space && len(cur.spans) > 0 {
			gap = m.Width(" ", w.font)
		}
		if len(cur.spans) > 0 && cur.width+gap+ww > width {
			push()
			gap = 0
		}
		if ww > width {
			for _, piece := range breakWord(m, w.text, w.font, width-cur.width) {
				if len(cur.spans) > 0 && cur.width+piece.width > width {
					push()
				}
				add(piece.text, w.font, piece.width)
			}
			continue
		}
		if gap > 0 {
			add(" "+w.text, w.font, gap+ww)
		} else {
			add(w.text, w.font, ww)
		}
	}
	push()
	return lines
}

// breakWord cuts text into pieces, first one fits into first, the rest into
// width.
func breakWord(m Measurer, text string, f Font, width float64) []span {
	var (
		pieces []span
		start  int
		limit  = width
	)
	runes := []rune(text)
	for start < len(runes) {
		end := start + 1
		for end < len(runes) && m.Width(string(runes[start:end+1]), f) <= limit {
			end++
		}
		s := string(runes[start:end])
		pieces = append(pieces, span{text: s, font: f, width: m.Width(s, f)})
		start = end
		limit = width
	}
	return pieces
}

// wrapPlain wraps unstyled text set in a single font.
func wrapPlain(m Measurer, text string, f Font, width float64) []line {
	return wrap(m, []markup.StyleRun{{Text: text, Bold: f.Bold, Italic: f.Italic, Underline: f.Underline}}, f.Size, width)
}
