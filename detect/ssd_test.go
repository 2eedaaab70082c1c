package detect

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdcam/model"
)

func tensorBytes(boxes, scores []float32) []byte {
	b := make([]byte, 0, 4*(len(boxes)+len(scores)))
	for _, v := range append(append([]float32{}, boxes...), scores...) {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func testPriors() *model.BoxPriors {
	return &model.BoxPriors{Rows: [model.BoxRows][]float32{
		{0.5, 0.5, 0.25},
		{0.5, 0.5, 0.25},
		{0.5, 0.5, 0.2},
		{0.5, 0.5, 0.2},
	}}
}

func TestDecoderRejectsBadInput(t *testing.T) {
	_, err := NewDecoder(nil, 3)
	assert.Error(t, err)
	_, err = NewDecoder(testPriors(), 1)
	assert.Error(t, err)

	d, err := NewDecoder(testPriors(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3*(4+3)*4, d.TensorBytes())

	_, err = d.Decode(make([]byte, 10), 100, 100, Params{ScoreThreshold: 0.5})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	d, err := NewDecoder(testPriors(), 3)
	require.NoError(t, err)

	boxes := make([]float32, 3*4)
	scores := []float32{
		// anchor 0: class 2 confident
		9, -9, 2,
		// anchor 1: same box, class 2 weaker, suppressed by NMS
		9, -9, 1,
		// anchor 2: background only
		9, -9, -9,
	}
	objs, err := d.Decode(tensorBytes(boxes, scores), 100, 200, Params{ScoreThreshold: 0.5, IOUThreshold: 0.5})
	require.NoError(t, err)
	require.Len(t, objs, 1)

	o := objs[0]
	assert.Equal(t, 2, o.ClassID)
	assert.InDelta(t, 0.8808, o.Score, 1e-3)
	assert.Equal(t, 25, o.X)
	assert.Equal(t, 50, o.Y)
	assert.Equal(t, 50, o.Width)
	assert.Equal(t, 100, o.Height)
}

func TestDecodeWithoutSuppression(t *testing.T) {
	d, err := NewDecoder(testPriors(), 3)
	require.NoError(t, err)

	boxes := make([]float32, 3*4)
	scores := []float32{-9, -9, 1, -9, -9, 2, -9, -9, -9}
	objs, err := d.Decode(tensorBytes(boxes, scores), 100, 100, Params{ScoreThreshold: 0.5})
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Greater(t, objs[0].Score, objs[1].Score)
}

func TestDecodeClipsToFrame(t *testing.T) {
	d, err := NewDecoder(testPriors(), 3)
	require.NoError(t, err)

	boxes := make([]float32, 3*4)
	// Anchor 2: grow the box well past the frame edges.
	boxes[2*4+2] = 20
	boxes[2*4+3] = 20
	scores := []float32{-9, -9, -9, -9, -9, -9, -9, 5, -9}
	objs, err := d.Decode(tensorBytes(boxes, scores), 64, 48, Params{ScoreThreshold: 0.5})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, Object{X: 0, Y: 0, Width: 64, Height: 48, ClassID: 1, Score: objs[0].Score}, objs[0])
}

func TestNMS(t *testing.T) {
	objs := []Object{
		{X: 0, Y: 0, Width: 10, Height: 10, ClassID: 1, Score: 0.6},
		{X: 1, Y: 1, Width: 10, Height: 10, ClassID: 1, Score: 0.9},
		{X: 1, Y: 1, Width: 10, Height: 10, ClassID: 2, Score: 0.7},
		{X: 50, Y: 50, Width: 10, Height: 10, ClassID: 1, Score: 0.5},
	}
	out := NMS(objs, 0.5)
	require.Len(t, out, 3)
	assert.Equal(t, float32(0.9), out[0].Score)
	assert.Equal(t, 2, out[1].ClassID)
	assert.Equal(t, 50, out[2].X)
}

func TestIOU(t *testing.T) {
	a := Object{X: 0, Y: 0, Width: 10, Height: 10}
	b := Object{X: 5, Y: 0, Width: 10, Height: 10}
	assert.InDelta(t, 50.0/150.0, a.IOU(b), 1e-6)
	assert.Equal(t, float32(0), a.IOU(Object{X: 20, Y: 20, Width: 1, Height: 1}))
	assert.Equal(t, float32(0), Object{}.IOU(Object{}))
}
