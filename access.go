package mglevel

import "github.com/unkn0wn-root/mglevel/needs"

// Get returns the value stored under (name, p) as a T.
//
// A missing value is produced on demand: the key must be requested or kept,
// otherwise ErrNotRequested. The producer's Build runs on l, and the inputs
// it declared are released once it has consumed them. A stored value of a
// different type fails with ErrTypeMismatch.
//
// Get never changes the key's own request count.
func Get[T any](l *Level, name string, p Producer) (T, error) {
	var zero T
	f, err := l.resolve("get", name, p)
	if err != nil {
		return zero, err
	}
	if err := l.produce(name, f); err != nil {
		return zero, err
	}
	v, err := needs.Value[T](l.store, name, f)
	if err != nil {
		return zero, l.keyErr("get", name, f, err, nil)
	}
	return v, nil
}

// Peek returns the value only if it is already stored; it never builds and
// never checks requests. ok is false on a miss.
func Peek[T any](l *Level, name string, p Producer) (v T, ok bool, err error) {
	f, err := l.resolve("peek", name, p)
	if err != nil {
		return v, false, err
	}
	if !l.store.IsAvailable(name, f) {
		return v, false, nil
	}
	v, err = needs.Value[T](l.store, name, f)
	if err != nil {
		return v, false, l.keyErr("peek", name, f, err, nil)
	}
	return v, true, nil
}

// MustGet is like Get but panics on error.
// Handy in tests and in factories whose inputs were validated upfront.
func MustGet[T any](l *Level, name string, p Producer) T {
	v, err := Get[T](l, name, p)
	if err != nil {
		panic(err)
	}
	return v
}
