package detect

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chewxy/math32"

	"ssdcam/model"
)

// SSD MobileNet box encoding scale factors.
const (
	YScale = 10.0
	XScale = 10.0
	HScale = 5.0
	WScale = 5.0
)

// Params are the per-result tunables; they may change between calls when the
// configuration is reloaded.
type Params struct {
	ScoreThreshold float32
	IOUThreshold   float32
}

// Decoder converts the raw output tensors of an SSD MobileNet model into
// Objects. The tensor layout is two float32 little endian tensors laid out
// back to back: box encodings [N][4] (y, x, h, w) followed by class logits
// [N][LabelSize].
type Decoder struct {
	priors    *model.BoxPriors
	labelSize int
}

func NewDecoder(priors *model.BoxPriors, labelSize int) (*Decoder, error) {
	if priors == nil || priors.Len() == 0 {
		return nil, fmt.Errorf("decoder needs box priors")
	}
	if labelSize < 2 {
		return nil, fmt.Errorf("invalid label size %d", labelSize)
	}
	return &Decoder{
		priors:    priors,
		labelSize: labelSize,
	}, nil
}

// TensorBytes is the exact size of a result buffer this decoder accepts.
func (d *Decoder) TensorBytes() int {
	return d.priors.Len() * (model.BoxRows + d.labelSize) * 4
}

// Decode extracts detections scaled to a width x height frame. Objects are
// ordered by descending score.
func (d *Decoder) Decode(data []byte, width, height int, p Params) ([]Object, error) {
	if len(data) != d.TensorBytes() {
		return nil, fmt.Errorf("unexpected tensor size %d, want %d", len(data), d.TensorBytes())
	}
	n := d.priors.Len()
	boxes := data[:n*model.BoxRows*4]
	scores := data[n*model.BoxRows*4:]

	// Compare raw logits against logit(threshold) so sigmoid is only evaluated
	// for candidates.
	minLogit := logit(p.ScoreThreshold)

	var out []Object
	for i := 0; i < n; i++ {
		for c := 1; c < d.labelSize; c++ {
			raw := readFloat(scores, i*d.labelSize+c)
			if raw < minLogit {
				continue
			}
			o := d.box(boxes, i, width, height)
			o.ClassID = c
			o.Score = sigmoid(raw)
			if o.Width <= 0 || o.Height <= 0 {
				continue
			}
			out = append(out, o)
		}
	}
	return NMS(out, p.IOUThreshold), nil
}

func (d *Decoder) box(boxes []byte, i, width, height int) Object {
	enc := func(j int) float32 { return readFloat(boxes, i*model.BoxRows+j) }

	yc := enc(0)/YScale*d.priors.At(model.PriorHeight, i) + d.priors.At(model.PriorYCenter, i)
	xc := enc(1)/XScale*d.priors.At(model.PriorWidth, i) + d.priors.At(model.PriorXCenter, i)
	h := math32.Exp(enc(2)/HScale) * d.priors.At(model.PriorHeight, i)
	w := math32.Exp(enc(3)/WScale) * d.priors.At(model.PriorWidth, i)

	fw, fh := float32(width), float32(height)
	x1 := clamp((xc-w/2)*fw, 0, fw)
	y1 := clamp((yc-h/2)*fh, 0, fh)
	x2 := clamp((xc+w/2)*fw, 0, fw)
	y2 := clamp((yc+h/2)*fh, 0, fh)

	return Object{
		X:      int(x1),
		Y:      int(y1),
		Width:  int(x2) - int(x1),
		Height: int(y2) - int(y1),
	}
}

func readFloat(b []byte, idx int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[idx*4:]))
}

func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

func logit(p float32) float32 {
	switch {
	case p <= 0:
		return math32.Inf(-1)
	case p >= 1:
		return math32.Inf(1)
	}
	return math32.Log(p / (1 - p))
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
