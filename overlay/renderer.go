package overlay

import (
	"image"
	"image/color"

	log "github.com/sirupsen/logrus"

	"ssdcam/detect"
	"ssdcam/model"
)

var (
	ColorBox     = color.RGBA{R: 255, A: 255}
	ColorLabel   = color.RGBA{R: 255, A: 255}
	ColorOutline = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// LabelOffset is where label text is placed relative to a box's top-left
// corner.
var LabelOffset = image.Point{X: 5, Y: 25}

type Style struct {
	Box          color.RGBA
	BoxWidth     float64
	Label        color.RGBA
	LabelOutline color.RGBA
	FontSize     float64
}

func DefaultStyle() Style {
	return Style{
		Box:          ColorBox,
		BoxWidth:     1.5,
		Label:        ColorLabel,
		LabelOutline: ColorOutline,
		FontSize:     20,
	}
}

// Renderer draws detection boxes and their labels.
type Renderer struct {
	Style Style

	// MaxObjects caps the number of boxes drawn per frame. Zero means no cap.
	MaxObjects int
}

// Result counts what a Render call did.
type Result struct {
	Drawn   int
	Skipped int
}

// Render draws each object in objs onto c. Objects whose class id has no
// label are skipped. Render never retains objs.
func (r *Renderer) Render(c Canvas, objs []detect.Object, labels model.Labels) Result {
	var res Result
	for _, o := range objs {
		if r.MaxObjects > 0 && res.Drawn >= r.MaxObjects {
			break
		}
		label, ok := labels.Lookup(o.ClassID)
		if !ok {
			log.Debugf("Skipping detection with unknown class id %d (%d labels)", o.ClassID, len(labels))
			res.Skipped++
			continue
		}

		c.StrokeRect(o.Rect(), r.Style.Box, r.Style.BoxWidth)
		c.Text(label, image.Point{X: o.X, Y: o.Y}.Add(LabelOffset), r.Style.FontSize, r.Style.Label, r.Style.LabelOutline)
		res.Drawn++
	}
	return res
}
