package codec

import (
	"errors"
	"fmt"
)

var ErrTooLarge = errors.New("codec: payload too large")

// LimitCodec refuses to decode frames above MaxDecode bytes. A shared
// provider may hold checkpoints written by another process; the limit keeps a
// bogus frame from allocating a huge operator. MaxDecode <= 0 disables it.
type LimitCodec[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

// Limit wraps inner with a decode size cap.
func Limit[V any](inner Codec[V], maxDecode int) LimitCodec[V] {
	return LimitCodec[V]{Inner: inner, MaxDecode: maxDecode}
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
