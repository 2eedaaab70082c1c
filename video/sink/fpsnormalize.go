package sink

import (
	"time"

	"ssdcam/video"
)

// FPSNormalize wraps another Sink so that an incoming stream of variable-timed
// video is converted to fixed-rate video. Leaky queues in the pipeline drop
// frames under load, while the recording needs a fixed frame rate. Frames
// will be dropped or repeated in order to achieve the target frame rate.
type FPSNormalize struct {
	// sink is the wrapped Sink which will receive a FPS-normalized stream.
	sink Sink

	frameDur time.Duration
	last     video.Image
	hasLast  bool
	curFrame time.Time
}

// NewFPSNormalize creates an FPSNormalize, wrapping the provided sink and
// exporting at the given frame rate.
func NewFPSNormalize(sink Sink, fps int) *FPSNormalize {
	return &FPSNormalize{
		sink:     sink,
		frameDur: time.Second / time.Duration(fps),
	}
}

func (f *FPSNormalize) Close() {
	f.sink.Close()
	if f.hasLast {
		f.last.Close()
	}
}

func (f *FPSNormalize) remember(input video.Image) {
	if f.hasLast {
		f.last.Close()
	}
	f.last = input.Clone()
	f.hasLast = true
}

func (f *FPSNormalize) Put(input video.Image) {
	if f.curFrame.IsZero() {
		f.sink.Put(input)
		f.remember(input)
		f.curFrame = input.Time
		return
	}

	nextFrame := f.curFrame.Add(f.frameDur)
	if input.Time.Before(nextFrame) {
		// Don't need a new frame yet. Ignore.
		return
	}

	for {
		f.curFrame = nextFrame
		nextFrame = f.curFrame.Add(f.frameDur)
		if input.Time.Before(nextFrame) {
			i := input
			i.Time = f.curFrame
			f.sink.Put(i)
			f.remember(input)
			return
		}
		// Missed a frame. Rewrite last frame.
		i := f.last
		i.Time = f.curFrame
		f.sink.Put(i)
	}
}
