// Package overlaytest provides a Canvas that records draw commands.
package overlaytest

import (
	"image"
	"image/color"
	"sync"
)

type Rect struct {
	Rect      image.Rectangle
	Color     color.RGBA
	LineWidth float64
}

type Text struct {
	Text  string
	At    image.Point
	Size  float64
	Color color.RGBA
}

// Recorder implements overlay.Canvas.
type Recorder struct {
	Rects []Rect
	Texts []Text

	l sync.Mutex
}

func (r *Recorder) StrokeRect(rect image.Rectangle, c color.RGBA, lineWidth float64) {
	r.l.Lock()
	defer r.l.Unlock()
	r.Rects = append(r.Rects, Rect{Rect: rect, Color: c, LineWidth: lineWidth})
}

func (r *Recorder) Text(s string, p image.Point, size float64, fill, outline color.RGBA) {
	r.l.Lock()
	defer r.l.Unlock()
	r.Texts = append(r.Texts, Text{Text: s, At: p, Size: size, Color: fill})
}

// Commands returns the total number of draw calls recorded.
func (r *Recorder) Commands() int {
	r.l.Lock()
	defer r.l.Unlock()
	return len(r.Rects) + len(r.Texts)
}
