package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"ssdcam/app"
	"ssdcam/config"
	"ssdcam/metrics"
	"ssdcam/notify"
	"ssdcam/serve"
	"ssdcam/store"
	"ssdcam/video/sink"
)

type flags struct {
	config   *string
	modelDir *string
	video    *string
	port     *int
	logLevel *string
	noWindow *bool
	record   *string
}

func parseFlags() (*flags, error) {
	parser := argparse.NewParser("ssdcam", "Run SSD object detection over a video file and display the annotated stream")
	f := &flags{
		config:   parser.String("c", "config", &argparse.Options{Help: "JSON config file, reloaded on change"}),
		modelDir: parser.String("m", "model-dir", &argparse.Options{Help: "Directory holding the model, label and box prior files"}),
		video:    parser.String("v", "video", &argparse.Options{Help: "Input video file"}),
		port:     parser.Int("p", "port", &argparse.Options{Help: "Port to host the HTTP endpoints on"}),
		logLevel: parser.String("l", "log-level", &argparse.Options{Help: "Log level", Default: "info"}),
		noWindow: parser.Flag("", "no-window", &argparse.Options{Help: "Do not open a display window"}),
		record:   parser.String("r", "record", &argparse.Options{Help: "Record the annotated stream to this mp4 file"}),
	}
	if err := parser.Parse(os.Args); err != nil {
		return nil, errors.New(parser.Usage(err))
	}
	return f, nil
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg := config.Default()
	if *f.config != "" {
		var err error
		if cfg, err = config.FromFile(*f.config); err != nil {
			return nil, fmt.Errorf("config %v: %w", *f.config, err)
		}
	}
	if *f.modelDir != "" {
		cfg.ModelDir = *f.modelDir
	}
	if *f.video != "" {
		cfg.VideoPath = *f.video
	}
	if *f.port > 0 {
		cfg.Port = *f.port
	}
	if *f.noWindow {
		cfg.Display.Window = false
	}
	if *f.record != "" {
		cfg.Display.Record = *f.record
	}
	return cfg, cfg.Validate()
}

func buildDisplay(cfg *config.Config, mjpeg *sink.MJPEGServer) (sink.Multi, error) {
	sinks := sink.Multi{mjpeg.NewStream(sink.MJPEGID{Name: "overlay"})}
	if cfg.Display.Window {
		sinks = append(sinks, sink.NewWindow(cfg.Display.Title))
	}
	if cfg.Display.Record != "" {
		rec, err := sink.NewFFmpegSink(sink.FFmpegOptions{
			Path:   cfg.Display.Record,
			FPS:    cfg.Display.FPS,
			Width:  cfg.Video.Width,
			Height: cfg.Video.Height,
		})
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, sink.NewFPSNormalize(rec, cfg.Display.FPS))
	}
	return sinks, nil
}

func run() int {
	f, err := parseFlags()
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		return app.ExitStartup
	}
	level, err := log.ParseLevel(*f.logLevel)
	if err != nil {
		log.Errorf("Bad log level: %v", err)
		return app.ExitStartup
	}
	log.SetLevel(level)

	cfg, err := loadConfig(f)
	if err != nil {
		log.Errorf("Failed to configure: %v", err)
		return app.ExitStartup
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cs := config.NewStore(cfg)
	if *f.config != "" {
		cs.Watch(ctx, *f.config)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	updates := serve.NewMetaUpdater()
	defer updates.Close()
	notifier := notify.NewNotifier(cfg.Notify.Threshold, m)
	defer notifier.Close()
	notifier.Listeners = append(notifier.Listeners, updates)
	cs.OnChange(func(c *config.Config) {
		notifier.SetThreshold(c.Notify.Threshold)
	})

	if cfg.Notify.MQTTBroker != "" {
		em, err := notify.DialMQTT(cfg.Notify.MQTTBroker, cfg.Notify.MQTTTopic)
		if err != nil {
			log.Errorf("Failed to connect to MQTT: %v", err)
			return app.ExitStartup
		}
		defer em.Close()
		notifier.Listeners = append(notifier.Listeners, em)
	}

	var history *serve.HistoryServer
	if cfg.Notify.DSN != "" {
		events, err := store.Open(cfg.Notify.DBDriver, cfg.Notify.DSN)
		if err != nil {
			log.Errorf("Failed to open event store: %v", err)
			return app.ExitStartup
		}
		defer events.Close()
		notifier.Listeners = append(notifier.Listeners, events)
		history = &serve.HistoryServer{Events: events}
	}

	mjpeg := sink.NewMJPEGServer()
	a, err := app.New(app.Options{
		Config: cs,
		NewDisplay: func(c *config.Config) (app.Display, error) {
			display, err := buildDisplay(c, mjpeg)
			if err != nil {
				return nil, err
			}
			return &app.SinkDisplay{Sink: display, Stamp: c.Display.Title}, nil
		},
		Listener: notifier,
		Metrics:  m,
	})
	if err != nil {
		log.Errorf("Failed to start: %v", err)
		return app.ExitCode(err)
	}

	routes := &serve.Routes{
		Meta: &serve.MetaServer{
			Source: a.Buffer(),
			Labels: a.Labels(),
			State:  a.OverlayState(),
			Style:  a.Style(),
			MaxObjects: func() int {
				return cs.Get().Detection.MaxObjects
			},
		},
		Updates:  updates,
		MJPEG:    mjpeg,
		History:  history,
		Gatherer: reg,
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: routes.Handler(),
	}
	go func() {
		log.Infof("Hosting HTTP endpoints on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("HTTP server failed: %v", err)
		}
	}()
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer scancel()
		srv.Shutdown(sctx)
	}()

	err = a.Run(ctx)
	// Drain notifications before their listeners are closed.
	notifier.Close()
	if err != nil {
		log.Errorf("Pipeline stopped: %v", err)
	} else {
		log.Infof("Pipeline finished")
	}
	return app.ExitCode(err)
}

func main() {
	os.Exit(run())
}
