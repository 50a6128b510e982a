package images

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// used when SVG has neither size nor viewBox
const defaultSVGSize = 1024

// hard limit regardless of what caller asks for
var maxRasterSide = 8192

// RasterizeSVG draws SVG onto white RGBA image keeping its aspect ratio. The
// longer side of the result is at least minSide and at most maxSide pixels
// (zero means no bound), so small vector drawings stay sharp when printed
// across the page.
func RasterizeSVG(data []byte, minSide, maxSide int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	// reader accepts any text, nothing to draw and no size means it was not svg
	if len(icon.SVGPaths) == 0 && (icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0) {
		return nil, errors.New("no svg drawing found")
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = defaultSVGSize, defaultSVGSize
	}

	limit := maxRasterSide
	if maxSide > 0 {
		limit = min(limit, maxSide)
	}
	longest := math.Max(w, h)
	scale := 1.0
	switch {
	case longest > float64(limit):
		scale = float64(limit) / longest
	case minSide > 0 && longest < float64(minSide):
		scale = float64(min(minSide, limit)) / longest
	}
	pw := max(int(math.Round(w*scale)), 1)
	ph := max(int(math.Round(h*scale)), 1)

	icon.SetTarget(0, 0, float64(pw), float64(ph))

	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(pw, ph, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(pw, ph, scanner), 1.0)
	return dst, nil
}
