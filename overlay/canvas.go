package overlay

import (
	"image"
	"image/color"
)

// Canvas is the 2D drawing surface the renderer issues commands to. It is
// implemented over an OpenCV Mat for on-frame drawing and over a gg context
// for standalone overlay images.
type Canvas interface {
	// StrokeRect outlines r with the given line width.
	StrokeRect(r image.Rectangle, c color.RGBA, lineWidth float64)

	// Text draws s with its baseline starting at p. outline is drawn around
	// the glyphs when its alpha is non-zero.
	Text(s string, p image.Point, size float64, fill, outline color.RGBA)
}
