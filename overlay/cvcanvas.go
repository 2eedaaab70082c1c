package overlay

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Hershey simplex glyphs are roughly this many pixels tall at scale 1.
const hersheyHeight = 22.0

// CVCanvas draws directly into an OpenCV Mat.
type CVCanvas struct {
	mat *gocv.Mat
}

func NewCVCanvas(mat *gocv.Mat) *CVCanvas {
	return &CVCanvas{mat: mat}
}

func (c *CVCanvas) StrokeRect(r image.Rectangle, col color.RGBA, lineWidth float64) {
	gocv.Rectangle(c.mat, r, col, thickness(lineWidth))
}

func (c *CVCanvas) Text(s string, p image.Point, size float64, fill, outline color.RGBA) {
	font := gocv.FontHersheySimplex
	scale := size / hersheyHeight
	if outline.A != 0 {
		gocv.PutText(c.mat, s, p, font, scale, outline, 3)
	}
	gocv.PutText(c.mat, s, p, font, scale, fill, 1)
}

func thickness(w float64) int {
	if w < 1 {
		return 1
	}
	return int(math.Round(w))
}
