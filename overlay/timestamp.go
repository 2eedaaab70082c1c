package overlay

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

var (
	colorTime = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorBG   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// StampText is the banner drawn in the top-left corner of displayed frames.
func StampText(name string, seq uint64, t time.Time) string {
	return fmt.Sprintf("%s - %s #%d", name, t.Format("2006-01-02 15:04:05 MST"), seq)
}

// DrawTimestamp draws text on a filled background in the corner of mat.
func DrawTimestamp(mat *gocv.Mat, text string) {
	font := gocv.FontHersheySimplex
	scale := 0.5
	thickness := 1

	sz := gocv.GetTextSize(text, font, scale, thickness)

	pad := 2

	gocv.Rectangle(mat, image.Rectangle{Max: image.Point{X: sz.X + pad*2, Y: sz.Y + pad*2}}, colorBG, -1)

	gocv.PutText(mat, text, image.Point{X: pad, Y: sz.Y + pad}, font, scale, colorTime, thickness)
}
