package config

import (
	"errors"
	"fmt"
	"strings"
)

type Size struct {
	Width  int
	Height int
}

// Detection settings may be changed while running.
type Detection struct {
	ScoreThreshold float32
	IOUThreshold   float32

	// MaxObjects caps the boxes drawn per frame. Zero means no cap.
	MaxObjects int
}

type Display struct {
	Title string
	// Window shows frames in a desktop window.
	Window bool
	// Record is an mp4 path the annotated stream is written to, if set.
	Record string
	FPS    int
}

type Notify struct {
	// Results whose best score reaches Threshold are sent to listeners.
	Threshold float32

	MQTTBroker string
	MQTTTopic  string

	// DBDriver is "sqlite" or "mysql". Events are only logged if DSN is set.
	DBDriver string
	DSN      string
}

type Config struct {
	ModelDir  string
	VideoPath string

	Video Size
	Model Size

	// DetectionMax is the number of SSD anchors, and the column count of the
	// box prior table.
	DetectionMax int
	LabelSize    int
	Framework    string

	Detection Detection
	Display   Display
	Notify    Notify

	Port int
}

func Default() *Config {
	return &Config{
		ModelDir:     "./tflite_model",
		Video:        Size{Width: 640, Height: 640},
		Model:        Size{Width: 300, Height: 300},
		DetectionMax: 1917,
		LabelSize:    91,
		Framework:    "tensorflow-lite",
		Detection: Detection{
			ScoreThreshold: 0.5,
			IOUThreshold:   0.5,
		},
		Display: Display{
			Title:  "NNStreamer Example",
			Window: true,
			FPS:    30,
		},
		Notify: Notify{
			Threshold: 0.6,
			MQTTTopic: "ssdcam/detections",
			DBDriver:  "sqlite",
		},
		Port: 8080,
	}
}

func (c *Config) Validate() error {
	var errs []string
	if c.ModelDir == "" {
		errs = append(errs, "model directory not set")
	}
	if c.VideoPath == "" {
		errs = append(errs, "video path not set")
	}
	if c.DetectionMax <= 0 {
		errs = append(errs, fmt.Sprintf("detection max %d must be positive", c.DetectionMax))
	}
	if c.LabelSize < 2 {
		errs = append(errs, fmt.Sprintf("label size %d too small", c.LabelSize))
	}
	if err := c.Detection.validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		errs = append(errs, fmt.Sprintf("bad video size %dx%d", c.Video.Width, c.Video.Height))
	}
	if c.Display.FPS <= 0 {
		errs = append(errs, fmt.Sprintf("display fps %d must be positive", c.Display.FPS))
	}
	switch c.Notify.DBDriver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("unknown database driver %q", c.Notify.DBDriver))
	}
	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (d Detection) validate() error {
	if d.ScoreThreshold < 0 || d.ScoreThreshold >= 1 {
		return fmt.Errorf("score threshold %v out of range [0, 1)", d.ScoreThreshold)
	}
	if d.IOUThreshold < 0 || d.IOUThreshold > 1 {
		return fmt.Errorf("iou threshold %v out of range [0, 1]", d.IOUThreshold)
	}
	if d.MaxObjects < 0 {
		return fmt.Errorf("max objects %d is negative", d.MaxObjects)
	}
	return nil
}
