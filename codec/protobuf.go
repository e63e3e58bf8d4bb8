package codec

import "google.golang.org/protobuf/proto"

// Protobuf is a Codec for generated message types, for setup products that
// are shared with non-Go tooling.
type Protobuf[T proto.Message] struct {
	newMsg func() T
	opts   proto.MarshalOptions
}

// NewProtobuf takes a constructor for the concrete message, e.g.
// func() *pb.CSR { return &pb.CSR{} }. Output is deterministic.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{newMsg: ctor, opts: proto.MarshalOptions{Deterministic: true}}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) { return c.opts.Marshal(v) }

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.newMsg()
	err := proto.Unmarshal(b, m)
	return m, err
}
