package overlay

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// ImageCanvas renders onto a transparent RGBA image with vector graphics.
type ImageCanvas struct {
	dc    *gg.Context
	faces map[float64]font.Face
}

func NewImageCanvas(width, height int) *ImageCanvas {
	return &ImageCanvas{
		dc:    gg.NewContext(width, height),
		faces: make(map[float64]font.Face),
	}
}

func (c *ImageCanvas) StrokeRect(r image.Rectangle, col color.RGBA, lineWidth float64) {
	c.dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	c.dc.SetColor(col)
	c.dc.SetLineWidth(lineWidth)
	c.dc.Stroke()
}

func (c *ImageCanvas) Text(s string, p image.Point, size float64, fill, outline color.RGBA) {
	c.dc.SetFontFace(c.face(size))
	x, y := float64(p.X), float64(p.Y)
	if outline.A != 0 {
		c.dc.SetColor(outline)
		for _, d := range [][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			c.dc.DrawString(s, x+d[0], y+d[1])
		}
	}
	c.dc.SetColor(fill)
	c.dc.DrawString(s, x, y)
}

func (c *ImageCanvas) face(size float64) font.Face {
	f, ok := c.faces[size]
	if !ok {
		f = truetype.NewFace(labelFont, &truetype.Options{Size: size})
		c.faces[size] = f
	}
	return f
}

func (c *ImageCanvas) Image() image.Image {
	return c.dc.Image()
}

func (c *ImageCanvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}
