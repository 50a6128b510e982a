// Package layout places content nodes on pages. It produces abstract pages
// made of positioned drawables and never talks to PDF writer itself, so page
// numbers and totals can be settled before anything is serialized.
package layout

import (
	"repgen/config"
)

// PageBox describes page geometry in millimeters.
type PageBox struct {
	Width, Height            float64
	Top, Right, Bottom, Left float64
}

// NewPageBox builds page geometry from configuration.
func NewPageBox(cfg *config.PageConfig) PageBox {
	w, h := cfg.Size.Dimensions()
	return PageBox{
		Width:  w,
		Height: h,
		Top:    cfg.Margins.Top,
		Right:  cfg.Margins.Right,
		Bottom: cfg.Margins.Bottom,
		Left:   cfg.Margins.Left,
	}
}

func (b PageBox) ContentLeft() float64   { return b.Left }
func (b PageBox) ContentTop() float64    { return b.Top }
func (b PageBox) ContentWidth() float64  { return b.Width - b.Left - b.Right }
func (b PageBox) ContentBottom() float64 { return b.Height - b.Bottom }
func (b PageBox) ContentHeight() float64 { return b.Height - b.Top - b.Bottom }
func (b PageBox) ContentRight() float64  { return b.Width - b.Right }
