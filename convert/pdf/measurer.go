package pdf

import (
	"github.com/jung-kurt/gofpdf"

	"repgen/layout"
)

// Documents are set in a single core font family, text is translated to
// cp1252 before it is measured or drawn.
const fontFamily = "Helvetica"

// Measurer reports text widths using core font metrics. It is not safe for
// concurrent use.
type Measurer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func NewMeasurer() *Measurer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	return &Measurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// Width implements layout.Measurer, result is in millimeters.
func (m *Measurer) Width(text string, f layout.Font) float64 {
	if len(text) == 0 {
		return 0
	}
	m.pdf.SetFont(fontFamily, fontStyle(f, false), f.Size)
	return m.pdf.GetStringWidth(m.tr(text))
}

// fontStyle returns gofpdf style string, underline does not change metrics
// so it is only requested when drawing.
func fontStyle(f layout.Font, draw bool) string {
	var s string
	if f.Bold {
		s += "B"
	}
	if f.Italic {
		s += "I"
	}
	if draw && f.Underline {
		s += "U"
	}
	return s
}
