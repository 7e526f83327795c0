package decisioning

import (
	"context"
	"fmt"
	"sync"
)

// GrabLock serializes grabs per series so release discovery and the
// pending re-evaluation task never grab for the same series at once.
type GrabLock struct {
	mu sync.Mutex
	// Each held key maps to a channel closed on Release.
	locks map[string]chan struct{}
}

func NewGrabLock() *GrabLock {
	return &GrabLock{
		locks: make(map[string]chan struct{}),
	}
}

// SeriesKey returns the lock key for a series.
func SeriesKey(seriesID int64) string {
	return fmt.Sprintf("series:%d", seriesID)
}

// TryAcquire takes the lock for key. It returns false when the lock is
// already held.
func (g *GrabLock) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.locks[key]; held {
		return false
	}
	g.locks[key] = make(chan struct{})
	return true
}

// Acquire takes the lock for key, waiting for the current holder to
// release it. It returns ctx.Err() if ctx ends first.
func (g *GrabLock) Acquire(ctx context.Context, key string) error {
	for {
		g.mu.Lock()
		released, held := g.locks[key]
		if !held {
			g.locks[key] = make(chan struct{})
			g.mu.Unlock()
			return nil
		}
		g.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *GrabLock) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if released, held := g.locks[key]; held {
		close(released)
		delete(g.locks, key)
	}
}

// Held reports whether key is currently locked.
func (g *GrabLock) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.locks[key]
	return held
}
