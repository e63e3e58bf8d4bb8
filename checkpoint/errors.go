package checkpoint

import (
	"errors"
	"fmt"
)

var (
	ErrNoProvider  = errors.New("checkpoint: provider is required")
	ErrNoCodec     = errors.New("checkpoint: codec is required")
	ErrNoNamespace = errors.New("checkpoint: namespace is required")
)

// InvalidateError reports a partial invalidation. A failed bump leaves
// older frames restorable; a failed delete only leaves a stale frame behind
// that the next Restore drops.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("checkpoint: invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("checkpoint: invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("checkpoint: invalidate %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("checkpoint: invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
