// Package app wires the detection pipeline together: it owns the detection
// buffer, reacts to engine callbacks and controls the lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"ssdcam/config"
	"ssdcam/detect"
	"ssdcam/metrics"
	"ssdcam/model"
	"ssdcam/overlay"
	"ssdcam/pipeline"
	"ssdcam/video"
)

// ErrStartup wraps every error that prevents the pipeline from running.
var ErrStartup = errors.New("start-up failed")

// TeardownGrace is how long to wait after stopping the pipeline before
// releasing the rest of the resources.
var TeardownGrace = 200 * time.Millisecond

// Exit codes.
const (
	ExitOK      = 0
	ExitStartup = 1
	ExitRuntime = 2
)

// ExitCode maps the result of New or Run to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrStartup):
		return ExitStartup
	}
	return ExitRuntime
}

// ResultListener is told about each decoded result, outside any lock.
type ResultListener interface {
	ResultDecoded(traceID string, at time.Time, objs []detect.Object, labels model.Labels)
}

type Options struct {
	Config *config.Store
	// Factory builds the engine. Defaults to pipeline.NewGstEngine.
	Factory pipeline.Factory
	// NewDisplay opens the display once the model and input have been
	// checked. The app closes it on teardown. Optional.
	NewDisplay DisplayFactory
	Listener ResultListener
	Metrics  *metrics.Metrics
}

type App struct {
	cfg      *config.Store
	info     *model.Info
	decoder  *detect.Decoder
	buffer   *detect.Buffer
	state    overlay.State
	style    overlay.Style
	display  Display
	listener ResultListener
	metrics  *metrics.Metrics

	engine pipeline.Engine
	lc     *Lifecycle
}

func startupError(err error) error {
	return fmt.Errorf("%w: %v", ErrStartup, err)
}

// New loads the model files, builds the pipeline and leaves it ready to Run.
// On failure everything acquired so far is released.
func New(opts Options) (_ *App, err error) {
	cfg := opts.Config.Get()
	if err := cfg.Validate(); err != nil {
		return nil, startupError(err)
	}

	a := &App{
		cfg:      opts.Config,
		buffer:   detect.NewBuffer(),
		style:    overlay.DefaultStyle(),
		listener: opts.Listener,
		metrics:  opts.Metrics,
		lc:       NewLifecycle(),
	}
	if a.metrics == nil {
		a.metrics = metrics.New(nil)
	}
	defer func() {
		if err != nil {
			a.lc.Teardown()
		}
	}()

	a.lc.Acquire("detections", func() error {
		a.buffer.Clear()
		return nil
	})
	if a.info, err = model.Load(cfg.ModelDir, model.Options{DetectionMax: cfg.DetectionMax}); err != nil {
		return nil, startupError(err)
	}
	if len(a.info.Labels) != cfg.LabelSize {
		log.Warnf("Label file has %d labels, model outputs %d classes", len(a.info.Labels), cfg.LabelSize)
	}
	if a.decoder, err = detect.NewDecoder(a.info.BoxPriors, cfg.LabelSize); err != nil {
		return nil, startupError(err)
	}
	if _, err = video.Probe(cfg.VideoPath); err != nil {
		return nil, startupError(err)
	}

	if opts.NewDisplay != nil {
		if a.display, err = opts.NewDisplay(cfg); err != nil {
			return nil, startupError(fmt.Errorf("failed to open display: %w", err))
		}
		a.lc.Acquire("display", func() error {
			a.display.Close()
			return nil
		})
	}

	factory := opts.Factory
	if factory == nil {
		factory = pipeline.NewGstEngine
	}
	desc := pipeline.Descriptor{
		VideoPath:   cfg.VideoPath,
		ModelPath:   a.info.ModelPath,
		VideoWidth:  cfg.Video.Width,
		VideoHeight: cfg.Video.Height,
		ModelWidth:  cfg.Model.Width,
		ModelHeight: cfg.Model.Height,
		Framework:   cfg.Framework,
	}
	if a.engine, err = factory(desc, a); err != nil {
		return nil, startupError(err)
	}
	a.lc.Acquire("pipeline", func() error {
		err := a.engine.Stop()
		time.Sleep(TeardownGrace)
		return err
	})
	if err = a.lc.Built(); err != nil {
		return nil, startupError(err)
	}
	log.Infof("Pipeline built for %v", cfg.VideoPath)
	return a, nil
}

// Buffer returns the shared detection buffer.
func (a *App) Buffer() *detect.Buffer {
	return a.buffer
}

func (a *App) Labels() model.Labels {
	return a.info.Labels
}

// OverlayState returns the geometry of the displayed frames.
func (a *App) OverlayState() *overlay.State {
	return &a.state
}

func (a *App) Style() overlay.Style {
	return a.style
}

func (a *App) State() State {
	return a.lc.State()
}

// Run plays the pipeline until end of stream, a pipeline error or ctx is
// done, then tears everything down. A nil error means a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.lc.Start(); err != nil {
		a.lc.Teardown()
		return startupError(err)
	}
	if err := a.engine.Play(); err != nil {
		a.lc.Stop(err)
		a.lc.Teardown()
		return startupError(err)
	}

	select {
	case <-ctx.Done():
		log.Infof("Shutting down: %v", ctx.Err())
		a.lc.Stop(nil)
	case <-a.lc.Done():
	}

	err := a.lc.Err()
	if terr := a.lc.Teardown(); terr != nil && err == nil {
		log.Warnf("Teardown incomplete: %v", terr)
	}
	return err
}

// Close releases everything without running. Safe to call after Run.
func (a *App) Close() error {
	return a.lc.Teardown()
}
