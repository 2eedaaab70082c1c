package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

var gstInit sync.Once

const busPollInterval = 50 * time.Millisecond

// GstEngine runs a launch-line pipeline on GStreamer.
type GstEngine struct {
	pipeline *gst.Pipeline
	overlay  *app.Sink
	tensor   *app.Sink
	h        Handler

	frameSeq uint64
	caps     atomic.Value // VideoInfo

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewGstEngine parses the descriptor into a pipeline and attaches h to its
// appsinks. It satisfies Factory.
func NewGstEngine(d Descriptor, h Handler) (Engine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	gstInit.Do(func() { gst.Init(nil) })

	launch := d.String()
	log.Debugf("Launching pipeline: %s", launch)
	pipeline, err := gst.NewPipelineFromString(launch)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	e := &GstEngine{
		pipeline: pipeline,
		h:        h,
		done:     make(chan struct{}),
	}
	e.caps.Store(VideoInfo{})

	if e.overlay, err = sinkByName(pipeline, OverlaySinkName); err != nil {
		return nil, abandon(pipeline, err)
	}
	if e.tensor, err = sinkByName(pipeline, TensorSinkName); err != nil {
		return nil, abandon(pipeline, err)
	}

	e.overlay.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(s *app.Sink) gst.FlowReturn {
			return e.onFrame(s.PullSample())
		},
		NewPrerollFunc: func(s *app.Sink) gst.FlowReturn {
			return e.onFrame(s.PullPreroll())
		},
	})
	e.tensor.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(s *app.Sink) gst.FlowReturn {
			return e.onResult(s.PullSample(), false)
		},
		NewPrerollFunc: func(s *app.Sink) gst.FlowReturn {
			return e.onResult(s.PullPreroll(), true)
		},
	})
	return e, nil
}

type stateSetter interface {
	SetState(gst.State) error
}

// abandon releases a pipeline that was parsed but will never play.
func abandon(p stateSetter, cause error) error {
	if err := p.SetState(gst.StateNull); err != nil {
		log.Warnf("Failed to release pipeline: %v", err)
	}
	return cause
}

func sinkByName(p *gst.Pipeline, name string) (*app.Sink, error) {
	elem, err := p.GetElementByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", name, err)
	}
	return app.SinkFromElement(elem), nil
}

func (e *GstEngine) Play() error {
	if e.pipeline == nil {
		return ErrNotBuilt
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.monitorBus()
	}()
	if err := e.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	log.Infof("Pipeline playing")
	return nil
}

func (e *GstEngine) Stop() error {
	if e.pipeline == nil {
		return ErrNotBuilt
	}
	var err error
	e.stopOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
		if serr := e.pipeline.SetState(gst.StateNull); serr != nil {
			err = fmt.Errorf("failed to stop pipeline: %w", serr)
		}
	})
	return err
}

// copySample copies the mapped contents of the sample's buffer. The engine
// reuses buffers once the callback returns.
func copySample(sample *gst.Sample) []byte {
	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil
	}
	mapInfo := buffer.Map(gst.MapRead)
	defer buffer.Unmap()
	data := mapInfo.Bytes()
	if len(data) == 0 {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

func (e *GstEngine) onResult(sample *gst.Sample, preroll bool) gst.FlowReturn {
	if sample == nil {
		log.Warnf("Failed to pull tensor sample, skipping")
		return gst.FlowOK
	}
	data := copySample(sample)
	if data == nil {
		log.Warnf("Empty tensor buffer, skipping")
		return gst.FlowOK
	}
	e.h.OnNewResult(Result{
		Data:     data,
		TraceID:  uuid.New().String(),
		Received: time.Now(),
		Preroll:  preroll,
	})
	return gst.FlowOK
}

func (e *GstEngine) onFrame(sample *gst.Sample) gst.FlowReturn {
	if sample == nil {
		log.Warnf("Failed to pull video sample, skipping")
		return gst.FlowOK
	}
	if caps := sample.GetCaps(); caps != nil && caps.GetSize() > 0 {
		info, err := parseVideoInfo(caps.GetStructureAt(0))
		if err != nil {
			log.Warnf("Unusable video caps %v: %v", caps.String(), err)
		} else if info != e.caps.Load().(VideoInfo) {
			e.caps.Store(info)
			e.h.OnCapsChanged(info)
		}
	}
	data := copySample(sample)
	if data == nil {
		return gst.FlowOK
	}
	f := &Frame{
		Seq:  atomic.AddUint64(&e.frameSeq, 1),
		Data: data,
		Info: e.caps.Load().(VideoInfo),
	}
	e.h.OnDraw(f)
	return gst.FlowOK
}

func (e *GstEngine) monitorBus() {
	bus := e.pipeline.GetPipelineBus()
	name := e.pipeline.GetName()
	for {
		select {
		case <-e.done:
			return
		default:
		}
		msg := bus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}
		e.h.OnStatusMessage(statusFromMessage(msg, name))
	}
}

func statusFromMessage(msg *gst.Message, pipelineName string) StatusMessage {
	m := StatusMessage{
		Source: msg.Source(),
		Name:   msg.Type().String(),
	}
	switch msg.Type() {
	case gst.MessageStreamStart:
		m.Type = StatusStreamStart
	case gst.MessageEOS:
		m.Type = StatusEOS
	case gst.MessageError:
		m.Type = StatusError
		gerr := msg.ParseError()
		m.Err = NewBusError(m.Source, gerr.Error(), gerr.DebugString())
	case gst.MessageWarning:
		m.Type = StatusWarning
		gerr := msg.ParseWarning()
		m.Err = NewBusError(m.Source, gerr.Error(), gerr.DebugString())
	case gst.MessageQoS:
		m.Type = StatusQoS
		if st := msg.GetStructure(); st != nil {
			var err error
			if m.Processed, m.Dropped, err = parseQoSCounts(st); err != nil {
				log.Debugf("Unreadable QoS stats from %v: %v", m.Source, err)
			}
		}
	case gst.MessageStateChanged:
		m.Type = StatusStateChanged
		old, new := msg.ParseStateChanged()
		m.OldState, m.NewState = old.String(), new.String()
		m.FromPipeline = m.Source == pipelineName
	case gst.MessageAsyncDone:
		m.Type = StatusAsyncDone
	default:
		m.Type = StatusOther
	}
	return m
}
