package sink

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"ssdcam/video"
)

type recordSink struct {
	name   string
	log    *[]string
	times  []time.Time
	closed bool
}

func (r *recordSink) Put(input video.Image) {
	r.times = append(r.times, input.Time)
	if r.log != nil {
		*r.log = append(*r.log, "put "+r.name)
	}
}

func (r *recordSink) Close() {
	r.closed = true
	if r.log != nil {
		*r.log = append(*r.log, "close "+r.name)
	}
}

func testImage(t time.Time) video.Image {
	return video.Image{Mat: gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3), Time: t}
}

func TestMulti(t *testing.T) {
	var log []string
	m := Multi{&recordSink{name: "a", log: &log}, &recordSink{name: "b", log: &log}}

	img := testImage(time.Now())
	defer img.Close()
	m.Put(img)
	m.Close()

	assert.Equal(t, []string{"put a", "put b", "close b", "close a"}, log)
}

func TestFPSNormalize(t *testing.T) {
	rec := &recordSink{}
	f := NewFPSNormalize(rec, 10)

	start := time.Unix(1000, 0)
	for _, off := range []time.Duration{
		0,
		50 * time.Millisecond,  // too early, dropped
		100 * time.Millisecond, // next slot
		350 * time.Millisecond, // two slots missed and filled
	} {
		img := testImage(start.Add(off))
		f.Put(img)
		img.Close()
	}
	f.Close()

	assert.True(t, rec.closed)
	assert.Equal(t, []time.Time{
		start,
		start.Add(100 * time.Millisecond),
		start.Add(200 * time.Millisecond),
		start.Add(300 * time.Millisecond),
	}, rec.times)
}

func TestMJPEGServerErrors(t *testing.T) {
	s := NewMJPEGServer()
	stream := s.NewStream(MJPEGID{Name: "overlay"})
	assert.Equal(t, []string{"overlay"}, s.Names())
	assert.Panics(t, func() { s.NewStream(MJPEGID{Name: "overlay"}) })

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mjpeg", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mjpeg?name=raw", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	stream.Close()
	assert.Empty(t, s.Names())
}

func TestFFmpegArgs(t *testing.T) {
	args := ffmpegArgs(FFmpegOptions{Path: "/tmp/out.mp4", FPS: 15, Width: 640, Height: 480})
	assert.Contains(t, args, "640x480")
	assert.Contains(t, args, "15")
	assert.Equal(t, "/tmp/out.mp4", args[len(args)-1])
}
