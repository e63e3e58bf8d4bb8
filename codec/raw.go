package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Bytes passes []byte values through untouched; only the frame is added.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// Float64s packs a dense vector as little-endian IEEE 754 words. It is the
// cheapest codec for nullspace columns and diagonals.
type Float64s struct{}

func (Float64s) Encode(v []float64) ([]byte, error) {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(x))
	}
	return b, nil
}

func (Float64s) Decode(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("codec: float64 vector length %d not a multiple of 8", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}
