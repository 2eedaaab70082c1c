package sink

import (
	"ssdcam/video"
)

// Sink defines a destination for a stream of images, such as a video file or monitor.
type Sink interface {
	// Put inserts an image to the sink. The caller *must not* modify this image
	// and it should not hold any references to the underlying Mat.
	Put(input video.Image)

	// Close should be called to finalize the Sink.
	Close()
}

// Multi fans each image out to every sink in order.
type Multi []Sink

func (m Multi) Put(input video.Image) {
	for _, s := range m {
		s.Put(input)
	}
}

// Close closes the sinks in reverse order.
func (m Multi) Close() {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].Close()
	}
}
