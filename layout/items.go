package layout

// Color is RGB triple, 0-255.
type Color struct {
	R, G, B int
}

// Font selects face of the single font family used by documents. Size is in
// points.
type Font struct {
	Size      float64
	Bold      bool
	Italic    bool
	Underline bool
}

// Item is a closed set of drawables. Every type switch over Item must
// handle: *Text, *Rect, *Line, *Picture.
type Item interface {
	item()
}

type (
	// Text is a single line, Y is the baseline.
	Text struct {
		X, Y  float64
		Text  string
		Font  Font
		Color Color
	}

	// Rect is filled when Fill is set and outlined when Stroke is set.
	Rect struct {
		X, Y, W, H float64
		Fill       *Color
		Stroke     *Color
		LineWidth  float64
	}

	Line struct {
		X1, Y1, X2, Y2 float64
		Color          Color
		Width          float64
	}

	// Picture refers to image cache entry.
	Picture struct {
		X, Y, W, H float64
		Ref        string
	}
)

func (*Text) item()    {}
func (*Rect) item()    {}
func (*Line) item()    {}
func (*Picture) item() {}

// points to millimeters
const ptToMM = 25.4 / 72

// Baseline returns text baseline for font size vertically centered in a line
// of height lineH starting at top.
func Baseline(top, lineH, size float64) float64 {
	return top + lineH/2 + size*ptToMM*0.35
}
