package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"ssdcam/detect"
	"ssdcam/metrics"
	"ssdcam/model"
)

// DefaultMinInterval is the quiet time after a notification during which
// further results are not announced.
const DefaultMinInterval = time.Second

type Detection struct {
	Label string
	detect.Object
}

// Notification is sent to all NotifyListeners registered with Notifier.
type Notification struct {
	TraceID    string
	Time       time.Time
	TimeString string
	Best       Detection
	Detections []Detection
}

type NotifyListener interface {
	Notify(n *Notification) error
}

type Notifier struct {
	Listeners   []NotifyListener
	MinInterval time.Duration
	Metrics     *metrics.Metrics

	threshold float32
	last      time.Time
	closed    bool
	wg        sync.WaitGroup

	l sync.Mutex
}

func NewNotifier(threshold float32, m *metrics.Metrics) *Notifier {
	return &Notifier{
		MinInterval: DefaultMinInterval,
		Metrics:     m,
		threshold:   threshold,
	}
}

func (n *Notifier) SetThreshold(t float32) {
	n.l.Lock()
	defer n.l.Unlock()
	n.threshold = t
}

// ResultDecoded is invoked with each set of decoded objects. Listeners are
// called asynchronously when the best labelled object reaches the threshold.
func (n *Notifier) ResultDecoded(traceID string, at time.Time, objs []detect.Object, labels model.Labels) {
	var ds []Detection
	for _, o := range objs {
		label, ok := labels.Lookup(o.ClassID)
		if !ok {
			continue
		}
		ds = append(ds, Detection{Label: label, Object: o})
	}
	if len(ds) == 0 {
		return
	}
	best := ds[0]
	for _, d := range ds[1:] {
		if d.Score > best.Score {
			best = d
		}
	}

	n.l.Lock()
	defer n.l.Unlock()
	if n.closed || best.Score < n.threshold {
		// Not interesting enough for notification.
		return
	}
	if !n.last.IsZero() && at.Sub(n.last) < n.MinInterval {
		return
	}
	n.last = at

	notification := &Notification{
		TraceID:    traceID,
		Time:       at,
		TimeString: at.Format("3:04:05 PM"),
		Best:       best,
		Detections: ds,
	}
	log.Debugf("Sending notification: %v", spew.Sdump(notification))
	for _, l := range n.Listeners {
		n.wg.Add(1)
		go func(l NotifyListener) {
			defer n.wg.Done()
			name := listenerName(l)
			if err := l.Notify(notification); err != nil {
				log.Errorf("Failed to send notification to %v: %v", name, err)
				n.count(name, "error")
				return
			}
			n.count(name, "ok")
		}(l)
	}
}

func (n *Notifier) count(listener, outcome string) {
	if n.Metrics != nil {
		n.Metrics.Notifications.WithLabelValues(listener, outcome).Inc()
	}
}

// Close stops new notifications and waits for in-flight ones.
func (n *Notifier) Close() {
	n.l.Lock()
	n.closed = true
	n.l.Unlock()
	n.wg.Wait()
}

type named interface {
	Name() string
}

func listenerName(l NotifyListener) string {
	if nl, ok := l.(named); ok {
		return nl.Name()
	}
	return fmt.Sprintf("%T", l)
}
