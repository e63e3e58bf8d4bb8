package mglevel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/mglevel/needs"
)

// All of these indicate a wiring mistake in the factory graph. None are retried.
var (
	ErrNotAvailable = needs.ErrNotAvailable
	ErrOverRelease  = needs.ErrOverRelease
	ErrTypeMismatch = needs.ErrTypeMismatch

	// ErrNotRequested is a read of a value that was neither requested nor kept.
	ErrNotRequested = fmt.Errorf("%w: read without request or keep", needs.ErrNotAvailable)

	ErrNoDefaultFactory = errors.New("mglevel: no default factory")
	ErrBuildFailed      = errors.New("mglevel: build failed")
	// ErrNotProduced is a Build that returned nil without storing the requested output.
	ErrNotProduced = fmt.Errorf("%w: factory did not produce expected output", ErrBuildFailed)

	ErrCycle              = errors.New("mglevel: cyclic factory dependency")
	ErrUsage              = errors.New("mglevel: invalid call sequence")
	ErrNoPreviousLevel    = errors.New("mglevel: no previous level")
	ErrNoHierarchy        = errors.New("mglevel: level is not part of a hierarchy")
	ErrConflictingFactory = errors.New("mglevel: conflicting default factory")

	errNoProducer = errors.New("user-supplied data has no producer")
)

// KeyError describes a failed operation on one (name, factory) key.
type KeyError struct {
	Op      string
	Level   int
	Name    string // empty for whole-factory operations
	Factory string
	Err     error // one of the sentinels above
	Cause   error // the factory's own error, if any
}

func (e *KeyError) Error() string {
	var b strings.Builder
	b.WriteString("mglevel: ")
	b.WriteString(e.Op)
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Factory != "" {
		fmt.Fprintf(&b, " (factory %s)", e.Factory)
	}
	fmt.Fprintf(&b, " on level %d: %v", e.Level, e.Err)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *KeyError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
