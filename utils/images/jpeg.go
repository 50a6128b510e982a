// Package images keeps helpers used to bring pictures into a shape PDF
// writer accepts.
package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
)

// JFIF density unit: dots per inch
const densityPerInch = 1

// EncodeJPEG flattens img onto white background (JPEG has no alpha) and
// encodes it with requested quality. When dpi is positive the resulting
// stream carries JFIF header with that density.
func EncodeJPEG(img image.Image, quality, dpi int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	if dpi <= 0 {
		return buf.Bytes(), nil
	}
	return withDensity(buf.Bytes(), min(dpi, 0xffff))
}

// withDensity puts JFIF APP0 segment right after SOI, existing APP0 is
// replaced.
func withDensity(data []byte, dpi int) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xff || data[1] != 0xd8 {
		return nil, errors.New("not a jpeg stream")
	}
	rest := data[2:]
	if rest[0] == 0xff && rest[1] == 0xe0 {
		if len(rest) < 4 {
			return nil, errors.New("truncated APP0 segment")
		}
		n := 2 + int(binary.BigEndian.Uint16(rest[2:4]))
		if n > len(rest) {
			return nil, errors.New("truncated APP0 segment")
		}
		rest = rest[n:]
	}

	out := make([]byte, 0, len(data)+20)
	out = append(out, 0xff, 0xd8, 0xff, 0xe0)
	out = binary.BigEndian.AppendUint16(out, 16)
	out = append(out, 'J', 'F', 'I', 'F', 0, 1, 2, densityPerInch)
	out = binary.BigEndian.AppendUint16(out, uint16(dpi))
	out = binary.BigEndian.AppendUint16(out, uint16(dpi))
	// no thumbnail
	out = append(out, 0, 0)
	return append(out, rest...), nil
}

// flatten composes img over opaque white, opaque images are returned as is.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
