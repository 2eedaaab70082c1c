package app

import (
	"time"

	log "github.com/sirupsen/logrus"

	"ssdcam/detect"
	"ssdcam/overlay"
	"ssdcam/pipeline"
)

// OnNewResult decodes an inference output and replaces the shared detections.
func (a *App) OnNewResult(r pipeline.Result) {
	if !a.lc.Enter() {
		return
	}
	defer a.lc.Leave()
	a.metrics.Results.Inc()

	width, height, ok := a.state.Geometry()
	if !ok {
		c := a.cfg.Get()
		width, height = c.Video.Width, c.Video.Height
	}
	tun := a.cfg.Get().Detection
	objs, err := a.decoder.Decode(r.Data, width, height, detect.Params{
		ScoreThreshold: tun.ScoreThreshold,
		IOUThreshold:   tun.IOUThreshold,
	})
	if err != nil {
		a.metrics.DecodeErrors.Inc()
		log.WithField("trace", r.TraceID).Warnf("Dropping inference result: %v", err)
		return
	}
	a.buffer.Submit(objs)
	a.metrics.Detections.Add(float64(len(objs)))

	if log.IsLevelEnabled(log.DebugLevel) {
		entry := log.WithField("trace", r.TraceID)
		entry.Debugf("Result with %d objects (preroll %v)", len(objs), r.Preroll)
		for _, o := range objs {
			label, _ := a.info.Labels.Lookup(o.ClassID)
			entry.Debugf("  %q %v", label, o)
		}
	}
	if a.listener != nil {
		a.listener.ResultDecoded(r.TraceID, r.Received, objs, a.info.Labels)
	}
}

// OnDraw draws the latest detections onto the frame and shows it.
func (a *App) OnDraw(f *pipeline.Frame) {
	if !a.lc.Enter() {
		return
	}
	defer a.lc.Leave()

	if a.display == nil {
		return
	}
	if _, _, ok := a.state.Geometry(); !ok {
		log.Debugf("Ignoring frame %d before the video format is known", f.Seq)
		return
	}
	start := time.Now()
	r := &overlay.Renderer{
		Style:      a.style,
		MaxObjects: a.cfg.Get().Detection.MaxObjects,
	}
	objs := a.buffer.Snapshot()

	var res overlay.Result
	draw := func(c overlay.Canvas) {
		res = r.Render(c, objs, a.info.Labels)
	}
	if err := a.display.Show(f, draw); err != nil {
		log.Warnf("Failed to show frame %d: %v", f.Seq, err)
		return
	}
	a.metrics.FramesDrawn.Inc()
	a.metrics.ObjectsDrawn.Add(float64(res.Drawn))
	a.metrics.ObjectsSkipped.Add(float64(res.Skipped))
	a.metrics.DrawDuration.Observe(time.Since(start).Seconds())
}

// OnCapsChanged records the geometry of the displayed frames.
func (a *App) OnCapsChanged(info pipeline.VideoInfo) {
	if info.Format != "" && info.Format != "BGR" {
		log.Warnf("Display branch negotiated %v, expected BGR", info.Format)
	}
	if !a.state.Update(info.Width, info.Height, info.Format) {
		log.Warnf("Unusable video format %v, overlay disabled", info)
		return
	}
	log.Infof("Video format is %v", info)
}

// OnStatusMessage reacts to pipeline bus messages. End of stream and errors
// stop the application.
func (a *App) OnStatusMessage(m pipeline.StatusMessage) {
	a.metrics.BusMessages.WithLabelValues(m.Type.String()).Inc()
	mlog := log.WithField("source", m.Source)
	if m.Err == nil && (m.Type == pipeline.StatusError || m.Type == pipeline.StatusWarning) {
		m.Err = pipeline.NewBusError(m.Source, m.Name, "")
	}

	switch m.Type {
	case pipeline.StatusStreamStart:
		mlog.Infof("Stream started")
	case pipeline.StatusEOS:
		mlog.Infof("End of stream")
		a.lc.Stop(nil)
	case pipeline.StatusError:
		a.metrics.PipelineErrors.WithLabelValues("error", m.Err.Category.String()).Inc()
		mlog.WithField("category", m.Err.Category).WithField("debug", m.Err.Debug).Errorf("Pipeline error: %v", m.Err.Message)
		a.lc.Stop(m.Err)
	case pipeline.StatusWarning:
		a.metrics.PipelineErrors.WithLabelValues("warning", m.Err.Category.String()).Inc()
		mlog.WithField("category", m.Err.Category).WithField("debug", m.Err.Debug).Warnf("Pipeline warning: %v", m.Err.Message)
	case pipeline.StatusQoS:
		a.metrics.QoSDropped.Set(float64(m.Dropped))
		mlog.Debugf("QoS: processed %d, dropped %d", m.Processed, m.Dropped)
	case pipeline.StatusStateChanged:
		if m.FromPipeline {
			mlog.Infof("Pipeline state %v -> %v", m.OldState, m.NewState)
		} else {
			mlog.Debugf("State %v -> %v", m.OldState, m.NewState)
		}
	case pipeline.StatusAsyncDone:
		mlog.Debugf("Async done")
	default:
		mlog.Debugf("Unhandled message %v", m.Name)
	}
}
