package genstore

import (
	"context"
	"sync"
	"time"
)

// LocalOptions configures NewLocal. Sweeping runs only when both fields are
// positive.
type LocalOptions struct {
	CleanupInterval time.Duration
	Retention       time.Duration
}

type counter struct {
	gen     uint64
	touched time.Time
}

// Local keeps generations in-process. A restart forgets them, so only frames
// written at generation 0 survive it; everything invalidated before the
// restart stays unreadable because its frame was deleted too.
type Local struct {
	mu       sync.RWMutex
	counters map[string]counter
	now      func() time.Time

	stop     context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

var _ GenStore = (*Local)(nil)

func NewLocal(opts LocalOptions) *Local {
	s := &Local{counters: make(map[string]counter), now: time.Now}
	if opts.CleanupInterval <= 0 || opts.Retention <= 0 {
		return s
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = make(chan struct{})
	go s.sweep(ctx, opts.CleanupInterval, opts.Retention)
	return s
}

func (s *Local) sweep(ctx context.Context, every, retention time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Cleanup(retention)
		}
	}
}

func (s *Local) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[k].gen, nil
}

func (s *Local) SnapshotMany(_ context.Context, ks []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(ks))
	s.mu.RLock()
	for _, k := range ks {
		out[k] = s.counters[k].gen
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *Local) Bump(_ context.Context, k string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bumpLocked(k, s.now()), nil
}

func (s *Local) BumpMany(_ context.Context, ks []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(ks))
	now := s.now()
	s.mu.Lock()
	for _, k := range ks {
		out[k] = s.bumpLocked(k, now)
	}
	s.mu.Unlock()
	return out, nil
}

func (s *Local) bumpLocked(k string, now time.Time) uint64 {
	c := s.counters[k]
	c.gen++
	c.touched = now
	s.counters[k] = c
	return c.gen
}

func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := s.now().Add(-retention)
	s.mu.Lock()
	for k, c := range s.counters {
		if c.touched.Before(cutoff) {
			delete(s.counters, k)
		}
	}
	s.mu.Unlock()
}

// Close stops the sweeper. Safe to call more than once.
func (s *Local) Close(context.Context) error {
	s.stopOnce.Do(func() {
		if s.stop == nil {
			return
		}
		s.stop()
		<-s.done
	})
	return nil
}
