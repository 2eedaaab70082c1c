package detect

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferEmpty(t *testing.T) {
	b := NewBuffer()
	s := b.Snapshot()
	assert.NotNil(t, s)
	assert.Empty(t, s)
}

func TestBufferLastSubmissionWins(t *testing.T) {
	b := NewBuffer()
	b.Submit([]Object{{X: 1, ClassID: 1}, {X: 2, ClassID: 2}, {X: 3, ClassID: 3}})
	b.Submit([]Object{{X: 9, ClassID: 4}, {X: 8, ClassID: 5}})

	assert.Equal(t, []Object{{X: 9, ClassID: 4}, {X: 8, ClassID: 5}}, b.Snapshot())

	b.Submit(nil)
	assert.Empty(t, b.Snapshot())
}

func TestBufferCopies(t *testing.T) {
	b := NewBuffer()
	in := []Object{{X: 1}, {X: 2}}
	b.Submit(in)
	in[0].X = 100

	s := b.Snapshot()
	assert.Equal(t, 1, s[0].X)
	s[1].X = 200
	assert.Equal(t, 2, b.Snapshot()[1].X)
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer()
	b.Submit([]Object{{X: 1}})
	b.Clear()
	assert.Empty(t, b.Snapshot())
}

// Each submission is a uniform set (every object carries the same ClassID
// and the set has ClassID+1 entries), so a torn read would show up as a mix.
func TestBufferConcurrentSnapshotsAreNeverTorn(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			set := make([]Object, i%7+1)
			for j := range set {
				set[j] = Object{ClassID: i % 7, X: j}
			}
			b.Submit(set)
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := b.Snapshot()
				if len(s) == 0 {
					continue
				}
				id := s[0].ClassID
				if !assert.Len(t, s, id+1) {
					return
				}
				for j, o := range s {
					if !assert.Equal(t, id, o.ClassID) || !assert.Equal(t, j, o.X) {
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
