// Package metrics holds the prometheus collectors for the detection pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ssdcam"

type Metrics struct {
	Results        prometheus.Counter
	DecodeErrors   prometheus.Counter
	Detections     prometheus.Counter
	FramesDrawn    prometheus.Counter
	ObjectsDrawn   prometheus.Counter
	ObjectsSkipped prometheus.Counter
	DrawDuration   prometheus.Histogram

	BusMessages    *prometheus.CounterVec
	PipelineErrors *prometheus.CounterVec
	QoSDropped     prometheus.Gauge

	Notifications *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Results: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_results_total",
			Help:      "Inference output buffers received.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Inference outputs that could not be decoded.",
		}),
		Detections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Objects detected across all results.",
		}),
		FramesDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_drawn_total",
			Help:      "Frames the overlay was drawn on.",
		}),
		ObjectsDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_drawn_total",
			Help:      "Boxes drawn onto frames.",
		}),
		ObjectsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_skipped_total",
			Help:      "Detections skipped for an unknown class id.",
		}),
		DrawDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "draw_duration_seconds",
			Help:      "Time spent drawing the overlay on a frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		BusMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_messages_total",
			Help:      "Pipeline bus messages by type.",
		}, []string{"type"}),
		PipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_errors_total",
			Help:      "Pipeline errors and warnings by category.",
		}, []string{"severity", "category"}),
		QoSDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "qos_dropped_buffers",
			Help:      "Buffers dropped as last reported by QoS messages.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Detection notifications by listener and outcome.",
		}, []string{"listener", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Results,
			m.DecodeErrors,
			m.Detections,
			m.FramesDrawn,
			m.ObjectsDrawn,
			m.ObjectsSkipped,
			m.DrawDuration,
			m.BusMessages,
			m.PipelineErrors,
			m.QoSDropped,
			m.Notifications,
		)
	}
	return m
}
