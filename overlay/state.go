package overlay

import (
	"sync"
)

// State records the geometry of the frames being displayed. Until the stream
// format is known it is invalid and draw requests must be ignored.
type State struct {
	valid         bool
	width, height int
	format        string

	l sync.RWMutex
}

// Update stores a new frame geometry and reports whether it is usable.
func (s *State) Update(width, height int, format string) bool {
	s.l.Lock()
	defer s.l.Unlock()
	s.valid = width > 0 && height > 0
	s.width, s.height, s.format = width, height, format
	return s.valid
}

func (s *State) Invalidate() {
	s.l.Lock()
	defer s.l.Unlock()
	s.valid = false
}

// Geometry returns the current frame size, and false if none is known.
func (s *State) Geometry() (width, height int, ok bool) {
	s.l.RLock()
	defer s.l.RUnlock()
	return s.width, s.height, s.valid
}

func (s *State) Format() string {
	s.l.RLock()
	defer s.l.RUnlock()
	return s.format
}
