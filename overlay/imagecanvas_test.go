package overlay

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdcam/detect"
)

func TestImageCanvasDrawsBox(t *testing.T) {
	c := NewImageCanvas(100, 100)
	r := &Renderer{Style: DefaultStyle()}
	res := r.Render(c, []detect.Object{{X: 10, Y: 20, Width: 30, Height: 40, ClassID: 2}}, testLabels)
	require.Equal(t, 1, res.Drawn)

	img := c.Image()
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	// Left edge of the box is stroked, the interior and far corner are not.
	_, _, _, a := img.At(10, 50).RGBA()
	assert.NotZero(t, a)
	_, _, _, a = img.At(90, 90).RGBA()
	assert.Zero(t, a)

	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}
