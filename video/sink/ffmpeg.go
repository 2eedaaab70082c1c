package sink

import (
	"fmt"
	"io"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"ssdcam/util"
	"ssdcam/video"
)

type FFmpegOptions struct {
	Path          string
	FPS           int
	Width, Height int
}

// FFmpegSink encodes raw BGR frames to an h264 file with an ffmpeg
// subprocess.
type FFmpegSink struct {
	b     chan []byte
	close chan chan error
	dead  chan struct{}
}

func ffmpegArgs(opts FFmpegOptions) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		// Configure ffmpeg to read from the opencv pipe.
		"-f", "rawvideo",
		"-pixel_format", "bgr24",
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "-", // Read from stdin.
		// Use h264 encoding with reasonable quality and speed. Note that
		// "preset" can be adjusted if the system is too slow to handle encoding.
		"-c:v", "libx264",
		"-preset", "superfast",
		"-crf", "30",
		"-pix_fmt", "yuv420p",
		// Enable fast-start so videos can be displayed in the browser without
		// full download.
		"-movflags", "+faststart",
		opts.Path,
	}
}

func NewFFmpegSink(opts FFmpegOptions) (*FFmpegSink, error) {
	bin, err := util.LocateFFmpeg()
	if err != nil {
		return nil, err
	}
	c := exec.Command(bin, ffmpegArgs(opts)...)
	c.Stdout = log.StandardLogger().WriterLevel(log.DebugLevel)
	c.Stderr = log.StandardLogger().WriterLevel(log.WarnLevel)

	pipe, err := c.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("error getting ffmpeg stdin: %w", err)
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("error starting ffmpeg: %w", err)
	}
	log.WithField("path", opts.Path).Infof("Recording %dx%d@%d to ffmpeg", opts.Width, opts.Height, opts.FPS)

	f := &FFmpegSink{
		b:     make(chan []byte, 4),
		close: make(chan chan error),
		dead:  make(chan struct{}),
	}
	go f.run(c, pipe)
	return f, nil
}

func (f *FFmpegSink) run(c *exec.Cmd, pipe io.WriteCloser) {
	var closer chan error
	var failed bool
loop:
	for {
		select {
		case closer = <-f.close:
			break loop
		case b := <-f.b:
			if failed {
				continue
			}
			if _, err := pipe.Write(b); err != nil {
				log.Errorf("Error writing to ffmpeg, dropping further frames: %v", err)
				failed = true
				close(f.dead)
			}
		}
	}
	pipe.Close()

	log.Infof("Waiting for FFMPEG shutdown.")
	err := c.Wait()
	log.Infof("FFMPEG exit with status %v", err)
	closer <- err // Signal close is completed.
}

func (f *FFmpegSink) Close() {
	c := make(chan error)
	f.close <- c
	if err := <-c; err != nil {
		log.Warnf("ffmpeg did not exit cleanly: %v", err)
	}
}

func (f *FFmpegSink) Put(input video.Image) {
	select {
	case <-f.dead:
		return
	default:
	}
	f.b <- input.Mat.ToBytes()
}
