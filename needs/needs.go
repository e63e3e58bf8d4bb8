// Package needs is the keyed store behind a multigrid Level.
//
// Every entry is addressed by a variable name plus the identity of the
// producer that generated it. Entries carry a request counter and a keep
// flag:
//
//	Request -> counter++
//	Release -> counter--, value dropped at 0 unless kept
//	Keep    -> value survives any number of releases
//	Delete  -> entry removed regardless of counter/keep
//
// The producer type P is opaque to the store; it is only compared.
// A Store is owned by a single Level and is not safe for concurrent use.
package needs

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	// ErrNotAvailable is returned when a value is read before it was stored.
	ErrNotAvailable = errors.New("needs: value not available")
	// ErrOverRelease is returned when Release has no matching Request.
	ErrOverRelease = errors.New("needs: release without matching request")
	// ErrTypeMismatch is returned when a stored value is read as another type.
	ErrTypeMismatch = errors.New("needs: type mismatch")
)

// Key identifies one entry.
type Key[P comparable] struct {
	Name     string
	Producer P
}

// TypeError reports a typed read that disagrees with the stored value.
type TypeError struct {
	Name string
	Want reflect.Type
	Got  reflect.Type
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("needs: %q stored as %v, requested as %v", e.Name, e.Got, e.Want)
}

func (e *TypeError) Unwrap() error { return ErrTypeMismatch }

type entry struct {
	value      any
	available  bool
	requests   int
	kept       bool
	inputsHeld bool
}

func (e *entry) idle() bool {
	return !e.available && e.requests == 0 && !e.kept && !e.inputsHeld
}

// Store is the keyed, ref-counted value store.
type Store[P comparable] struct {
	m map[Key[P]]*entry
}

// New returns an empty store.
func New[P comparable]() *Store[P] {
	return &Store[P]{m: make(map[Key[P]]*entry)}
}

func (s *Store[P]) lookup(name string, p P) (*entry, bool) {
	e, ok := s.m[Key[P]{Name: name, Producer: p}]
	return e, ok
}

func (s *Store[P]) ensure(name string, p P) *entry {
	k := Key[P]{Name: name, Producer: p}
	e, ok := s.m[k]
	if !ok {
		e = &entry{}
		s.m[k] = e
	}
	return e
}

// drop removes bookkeeping that no longer carries any state.
func (s *Store[P]) drop(name string, p P, e *entry) {
	if e.idle() {
		delete(s.m, Key[P]{Name: name, Producer: p})
	}
}

// Set stores or overwrites a value. Counter and keep flag are untouched.
func (s *Store[P]) Set(name string, p P, v any) {
	e := s.ensure(name, p)
	e.value = v
	e.available = true
}

// Get returns the stored value without touching the counter.
func (s *Store[P]) Get(name string, p P) (any, error) {
	e, ok := s.lookup(name, p)
	if !ok || !e.available {
		return nil, ErrNotAvailable
	}
	return e.value, nil
}

// Value is the type-checked form of Get.
func Value[T any, P comparable](s *Store[P], name string, p P) (T, error) {
	var zero T
	raw, err := s.Get(name, p)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &TypeError{
			Name: name,
			Want: reflect.TypeOf((*T)(nil)).Elem(),
			Got:  reflect.TypeOf(raw),
		}
	}
	return v, nil
}

// Request increments the counter, creating the entry if needed.
func (s *Store[P]) Request(name string, p P) {
	s.ensure(name, p).requests++
}

// Release decrements the counter. When it reaches zero on an entry that is
// not kept, the value is dropped and evicted reports true.
func (s *Store[P]) Release(name string, p P) (evicted bool, err error) {
	e, ok := s.lookup(name, p)
	if !ok || e.requests == 0 {
		return false, ErrOverRelease
	}
	e.requests--
	if e.requests > 0 || e.kept {
		return false, nil
	}
	evicted = e.available
	e.value = nil
	e.available = false
	s.drop(name, p, e)
	return evicted, nil
}

// Keep marks the entry as permanently retained.
func (s *Store[P]) Keep(name string, p P) {
	s.ensure(name, p).kept = true
}

// Delete removes the entry outright and reports whether it existed.
func (s *Store[P]) Delete(name string, p P) bool {
	k := Key[P]{Name: name, Producer: p}
	if _, ok := s.m[k]; !ok {
		return false
	}
	delete(s.m, k)
	return true
}

func (s *Store[P]) IsKept(name string, p P) bool {
	e, ok := s.lookup(name, p)
	return ok && e.kept
}

func (s *Store[P]) IsAvailable(name string, p P) bool {
	e, ok := s.lookup(name, p)
	return ok && e.available
}

func (s *Store[P]) IsRequested(name string, p P) bool {
	return s.NumRequests(name, p) > 0
}

func (s *Store[P]) NumRequests(name string, p P) int {
	e, ok := s.lookup(name, p)
	if !ok {
		return 0
	}
	return e.requests
}

// MarkInputsHeld records that the producer's own inputs were requested on
// behalf of this entry.
func (s *Store[P]) MarkInputsHeld(name string, p P) {
	s.ensure(name, p).inputsHeld = true
}

func (s *Store[P]) InputsHeld(name string, p P) bool {
	e, ok := s.lookup(name, p)
	return ok && e.inputsHeld
}

// ClearInputsHeld resets the flag and reports whether it was set.
func (s *Store[P]) ClearInputsHeld(name string, p P) bool {
	e, ok := s.lookup(name, p)
	if !ok || !e.inputsHeld {
		return false
	}
	e.inputsHeld = false
	s.drop(name, p, e)
	return true
}

// Len returns the number of tracked entries.
func (s *Store[P]) Len() int { return len(s.m) }

// Entry is a read-only snapshot of one entry.
type Entry[P comparable] struct {
	Key[P]
	Requests  int
	Kept      bool
	Available bool
	Type      reflect.Type // nil when unavailable
}

// Entries returns a snapshot for diagnostics, sorted by name.
// Entries sharing a name keep an unspecified relative order.
func (s *Store[P]) Entries() []Entry[P] {
	out := make([]Entry[P], 0, len(s.m))
	for k, e := range s.m {
		var t reflect.Type
		if e.available {
			t = reflect.TypeOf(e.value)
		}
		out = append(out, Entry[P]{
			Key:       k,
			Requests:  e.requests,
			Kept:      e.kept,
			Available: e.available,
			Type:      t,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Keys returns the keys of every tracked entry with the given name.
func (s *Store[P]) Keys(name string) []Key[P] {
	var out []Key[P]
	for k := range s.m {
		if k.Name == name {
			out = append(out, k)
		}
	}
	return out
}

// KeysOf returns the keys of every tracked entry produced by p, sorted by name.
func (s *Store[P]) KeysOf(p P) []Key[P] {
	var out []Key[P]
	for k := range s.m {
		if k.Producer == p {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
