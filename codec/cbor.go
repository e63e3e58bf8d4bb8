package codec

import (
	"math"

	"github.com/fxamacker/cbor/v2"
)

// CBOROptions configures NewCBOR.
type CBOROptions struct {
	// Deterministic selects RFC 8949 core deterministic encoding so the same
	// operator always yields the same frame bytes.
	Deterministic bool
	// MaxElements caps array length and map size on decode.
	// <= 0 means math.MaxInt32, large enough for fine-level vectors.
	MaxElements int
}

// CBOR serializes level values with fxamacker/cbor.
// The zero value is not usable; construct with NewCBOR or MustCBOR.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](opts CBOROptions) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if opts.Deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	// Floats go out at full width so restored coefficients compare bit-equal.
	eo.ShortestFloat = cbor.ShortestFloatNone

	limit := opts.MaxElements
	if limit <= 0 {
		limit = math.MaxInt32
	}
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{MaxArrayElements: limit, MaxMapPairs: limit}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is NewCBOR that panics. Meant for package-level vars and tests.
func MustCBOR[V any](opts CBOROptions) CBOR[V] {
	c, err := NewCBOR[V](opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
