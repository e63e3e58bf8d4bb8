// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{EvictEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	h := mglevel.NewHierarchy(mglevel.HierarchyOptions{
//	    Manager: manager,
//	    Hooks:   hooks, // or `raw` if you don't want async
//	})
//	ck, _ := checkpoint.New[*CSR](checkpoint.Options[*CSR]{..., Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/mglevel"
	"github.com/unkn0wn-root/mglevel/checkpoint"
)

// Hooks forwards events to inner on worker goroutines. When the queue is
// full the event is dropped and counted, so a slow sink never stalls a setup.
// Checkpoint events are forwarded when inner also implements checkpoint.Hooks
// and discarded otherwise.
type Hooks struct {
	inner   mglevel.Hooks
	ckpt    checkpoint.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var (
	_ mglevel.Hooks    = (*Hooks)(nil)
	_ checkpoint.Hooks = (*Hooks)(nil)
)

func New(inner mglevel.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.ckpt, _ = inner.(checkpoint.Hooks)
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded on a full queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) FactoryBuilt(level int, factory string, took time.Duration, err error) {
	h.try(func() { h.inner.FactoryBuilt(level, factory, took, err) })
}
func (h *Hooks) Evicted(level int, name, factory string) {
	h.try(func() { h.inner.Evicted(level, name, factory) })
}
func (h *Hooks) OverReleased(level int, name, factory string) {
	h.try(func() { h.inner.OverReleased(level, name, factory) })
}
func (h *Hooks) UnrequestedGet(level int, name, factory string) {
	h.try(func() { h.inner.UnrequestedGet(level, name, factory) })
}
func (h *Hooks) Deleted(level int, name, factory string) {
	h.try(func() { h.inner.Deleted(level, name, factory) })
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.ckpt != nil {
		h.try(func() { h.ckpt.SelfHeal(storageKey, reason) })
	}
}
func (h *Hooks) ProviderSetRejected(storageKey string, isBulk bool) {
	if h.ckpt != nil {
		h.try(func() { h.ckpt.ProviderSetRejected(storageKey, isBulk) })
	}
}
func (h *Hooks) InvalidateOutage(storageKey string, bumpErr, delErr error) {
	if h.ckpt != nil {
		h.try(func() { h.ckpt.InvalidateOutage(storageKey, bumpErr, delErr) })
	}
}
