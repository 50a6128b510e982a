// Package common keeps enumerations shared between configuration and
// processing packages, so config does not have to import processing code.
package common

//go:generate go tool go-enum --marshal --names

// Specification of image resizing mode.
// ENUM(none, keepAR, stretch)
type ImageResizeMode int

// Physical page format of produced document.
// ENUM(a4, letter, legal)
type PageSize int

// Dimensions returns page width and height in millimeters (portrait).
func (p PageSize) Dimensions() (float64, float64) {
	switch p {
	case PageSizeLetter:
		return 215.9, 279.4
	case PageSizeLegal:
		return 215.9, 355.6
	default:
		return 210, 297
	}
}

// Horizontal alignment of a text block. Justified text is laid out flush
// left, there is no inter-word stretching.
// ENUM(left, center, right, justify)
type TextAlign int
