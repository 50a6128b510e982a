package layout

import "fmt"

// OversizedError describes atomic block taller than the content box. Such
// block is still placed at the top of a fresh page and overflows the bottom
// margin.
type OversizedError struct {
	Kind      BlockKind
	Page      int
	Height    float64
	Available float64
}

func (e *OversizedError) Error() string {
	return fmt.Sprintf("%s block of %.1fmm does not fit into %.1fmm content box on page %d", e.Kind, e.Height, e.Available, e.Page)
}
