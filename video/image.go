package video

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// Image is a BGR frame on its way to the display sinks.
type Image struct {
	Mat  gocv.Mat
	Time time.Time
	Seq  uint64

	// buf backs Mat when it wraps Go memory.
	buf    []byte
	closed bool
}

// NewImageFromBGR wraps 8-bit BGR pixel data. Rows may be padded to a
// multiple of 4 bytes as GStreamer lays them out; padded rows are packed into
// a new slice. Otherwise the Mat shares data, so drawing on it writes through
// to the slice.
func NewImageFromBGR(data []byte, width, height int) (Image, error) {
	packed, err := PackBGR(data, width, height)
	if err != nil {
		return Image{}, err
	}
	m, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, packed)
	if err != nil {
		return Image{}, err
	}
	return Image{Mat: m, Time: time.Now(), buf: packed}, nil
}

// BGRStride is the row size GStreamer uses for packed 24-bit video.
func BGRStride(width int) int {
	return (width*3 + 3) &^ 3
}

// PackBGR returns the frame as tightly packed rows of width*3 bytes.
func PackBGR(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	row := width * 3
	stride := BGRStride(width)
	if stride == row {
		if len(data) < row*height {
			return nil, fmt.Errorf("frame has %d bytes, want %d for %dx%d BGR", len(data), row*height, width, height)
		}
		return data[:row*height], nil
	}
	// The last row may come without its padding.
	if want := stride*(height-1) + row; len(data) < want {
		return nil, fmt.Errorf("frame has %d bytes, want %d for %dx%d BGR with stride %d", len(data), want, width, height, stride)
	}
	out := make([]byte, row*height)
	for y := 0; y < height; y++ {
		copy(out[y*row:(y+1)*row], data[y*stride:y*stride+row])
	}
	return out, nil
}

func (i *Image) Close() {
	if i.closed {
		panic("image already closed")
	}
	i.closed = true
	i.Mat.Close()
}

func (i *Image) Clone() Image {
	return Image{
		Mat:  i.Mat.Clone(),
		Time: i.Time,
		Seq:  i.Seq,
	}
}
