package sink

import (
	"runtime"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ssdcam/video"
)

// Window shows images in a desktop window. The window is owned by a single
// locked OS thread since HighGUI is not thread safe.
type Window struct {
	title string
	c     chan video.Image
	done  chan struct{}
}

func NewWindow(title string) *Window {
	w := &Window{
		title: title,
		c:     make(chan video.Image, 1),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Window) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	window := gocv.NewWindow(w.title)
	defer window.Close()
	sizeSet := false

	for img := range w.c {
		if !sizeSet {
			window.ResizeWindow(img.Mat.Cols(), img.Mat.Rows())
			sizeSet = true
		}
		window.IMShow(img.Mat)
		window.WaitKey(1)
		img.Close()
	}
	log.Infof("Closed window %q", w.title)
}

// Put shows a copy of input. Frames arriving faster than the window can
// draw them are dropped.
func (w *Window) Put(input video.Image) {
	img := input.Clone()
	select {
	case w.c <- img:
	default:
		img.Close()
	}
}

func (w *Window) Close() {
	close(w.c)
	<-w.done
}
