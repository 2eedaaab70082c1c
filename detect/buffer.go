package detect

import (
	"sync"
)

// Buffer holds the most recent set of detections. It is written from the
// inference result callback and read from the draw callback, which run on
// different threads.
type Buffer struct {
	objects []Object
	l       sync.Mutex
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Submit replaces the current set with a copy of objs.
func (b *Buffer) Submit(objs []Object) {
	b.l.Lock()
	defer b.l.Unlock()
	b.objects = append(b.objects[:0], objs...)
}

// Snapshot returns an independent copy of the current set. The result is
// empty (never nil) before the first Submit.
func (b *Buffer) Snapshot() []Object {
	b.l.Lock()
	defer b.l.Unlock()
	out := make([]Object, len(b.objects))
	copy(out, b.objects)
	return out
}

// Clear drops all detections.
func (b *Buffer) Clear() {
	b.l.Lock()
	defer b.l.Unlock()
	b.objects = nil
}
