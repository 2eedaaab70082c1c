package app

import (
	"fmt"

	"ssdcam/config"
	"ssdcam/overlay"
	"ssdcam/pipeline"
	"ssdcam/video"
	"ssdcam/video/sink"
)

// Display shows frames after the overlay is drawn onto them.
type Display interface {
	// Show calls draw with a canvas over the frame, then presents it.
	Show(f *pipeline.Frame, draw func(overlay.Canvas)) error
	Close()
}

// DisplayFactory opens a display for the given configuration.
type DisplayFactory func(*config.Config) (Display, error)

// SinkDisplay draws on the frame with OpenCV and hands it to a video sink.
type SinkDisplay struct {
	Sink sink.Sink
	// Stamp is shown with the time and frame number when non-empty.
	Stamp string
}

func (d *SinkDisplay) Show(f *pipeline.Frame, draw func(overlay.Canvas)) error {
	img, err := video.NewImageFromBGR(f.Data, f.Info.Width, f.Info.Height)
	if err != nil {
		return fmt.Errorf("frame %d: %w", f.Seq, err)
	}
	defer img.Close()
	img.Seq = f.Seq

	draw(overlay.NewCVCanvas(&img.Mat))
	if d.Stamp != "" {
		overlay.DrawTimestamp(&img.Mat, overlay.StampText(d.Stamp, f.Seq, img.Time))
	}
	d.Sink.Put(img)
	return nil
}

func (d *SinkDisplay) Close() {
	d.Sink.Close()
}
