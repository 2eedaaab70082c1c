package app

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"ssdcam/util"
)

type State int

const (
	Uninitialized State = iota
	Built
	Running
	Stopped
	TornDown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Built:
		return "built"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case TornDown:
		return "torn down"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type resource struct {
	name  string
	close func() error
}

// Lifecycle tracks the application state, gates callback dispatch on it and
// releases acquired resources in reverse order exactly once.
type Lifecycle struct {
	state     State
	resources []resource
	err       error

	stopped  *util.Event
	inflight sync.WaitGroup
	l        sync.Mutex
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		stopped: util.NewEvent(),
	}
}

func (lc *Lifecycle) State() State {
	lc.l.Lock()
	defer lc.l.Unlock()
	return lc.state
}

// Acquire registers a resource to be released on teardown.
func (lc *Lifecycle) Acquire(name string, close func() error) {
	lc.l.Lock()
	defer lc.l.Unlock()
	lc.resources = append(lc.resources, resource{name: name, close: close})
}

func (lc *Lifecycle) transition(from, to State) error {
	lc.l.Lock()
	defer lc.l.Unlock()
	if lc.state != from {
		return fmt.Errorf("cannot go to %v from %v", to, lc.state)
	}
	lc.state = to
	log.Debugf("Lifecycle %v -> %v", from, to)
	return nil
}

// Built marks the pipeline as constructed.
func (lc *Lifecycle) Built() error {
	return lc.transition(Uninitialized, Built)
}

// Start marks the pipeline as running, enabling callback dispatch.
func (lc *Lifecycle) Start() error {
	return lc.transition(Built, Running)
}

// Enter reports whether a callback may run. Each successful Enter must be
// paired with Leave.
func (lc *Lifecycle) Enter() bool {
	lc.l.Lock()
	defer lc.l.Unlock()
	if lc.state != Running {
		return false
	}
	lc.inflight.Add(1)
	return true
}

func (lc *Lifecycle) Leave() {
	lc.inflight.Done()
}

// Stop ends dispatch. The first call records err as the reason; later calls
// are ignored.
func (lc *Lifecycle) Stop(err error) {
	lc.l.Lock()
	defer lc.l.Unlock()
	if lc.state >= Stopped {
		return
	}
	lc.state = Stopped
	lc.err = err
	lc.stopped.Notify()
}

// Done is closed once Stop has been called.
func (lc *Lifecycle) Done() <-chan struct{} {
	return lc.stopped.Done()
}

// Err returns the reason passed to the first Stop.
func (lc *Lifecycle) Err() error {
	lc.l.Lock()
	defer lc.l.Unlock()
	return lc.err
}

// Teardown stops dispatch, waits for in-flight callbacks and releases
// resources in reverse order of acquisition. Only the first call does work.
func (lc *Lifecycle) Teardown() error {
	lc.Stop(nil)

	lc.l.Lock()
	if lc.state == TornDown {
		lc.l.Unlock()
		return nil
	}
	lc.state = TornDown
	resources := lc.resources
	lc.resources = nil
	lc.l.Unlock()

	lc.inflight.Wait()

	var first error
	for i := len(resources) - 1; i >= 0; i-- {
		r := resources[i]
		log.Debugf("Releasing %v", r.name)
		if err := r.close(); err != nil {
			log.Errorf("Failed to release %v: %v", r.name, err)
			if first == nil {
				first = fmt.Errorf("release %v: %w", r.name, err)
			}
		}
	}
	return first
}
