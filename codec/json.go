package codec

import "encoding/json"

// JSON encodes level values with encoding/json. Handy for small parameter
// products that operators want to read in a provider dump; it cannot carry
// NaN or Inf. The zero value is ready to use.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
