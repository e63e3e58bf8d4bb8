// Package wire is the on-provider frame format for level checkpoints.
//
// Every payload carries an xxhash64 sum so a flipped bit in a stored operator
// is caught before the codec sees it.
//
//	single: magic(4) ver(1) kind(1) level(i32) gen(u64) sum(u64) vlen(u32) payload
//	bulk:   magic(4) ver(1) kind(1) level(i32) n(u32) item*n
//	item:   klen(u16) key gen(u64) sum(u64) vlen(u32) payload
//
// Integers are big-endian. Decoded payloads alias the input buffer.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"
)

const (
	magic           = "MGCK"
	version    byte = 2
	kindSingle byte = 1
	kindBulk   byte = 2

	headerLen  = len(magic) + 1 + 1 + 4
	singleLen  = headerLen + 8 + 8 + 4
	bulkLen    = headerLen + 4
	minItemLen = 2 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt   = errors.New("mglevel: corrupt checkpoint frame")
	ErrChecksum  = errors.New("mglevel: checkpoint payload checksum mismatch")
	ErrKeyLength = errors.New("mglevel: bulk key must be 1..65535 bytes")
)

type BulkItem struct {
	Key     string
	Gen     uint64
	Payload []byte
}

func appendHeader(b []byte, kind byte, level int32) []byte {
	b = append(b, magic...)
	b = append(b, version, kind)
	return binary.BigEndian.AppendUint32(b, uint32(level))
}

func appendPayload(b []byte, gen uint64, payload []byte) []byte {
	b = binary.BigEndian.AppendUint64(b, gen)
	b = binary.BigEndian.AppendUint64(b, xxhash.Sum64(payload))
	b = binary.BigEndian.AppendUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

func EncodeSingle(gen uint64, level int32, payload []byte) []byte {
	b := make([]byte, 0, singleLen+len(payload))
	b = appendHeader(b, kindSingle, level)
	return appendPayload(b, gen, payload)
}

func EncodeBulk(level int32, items []BulkItem) ([]byte, error) {
	size := bulkLen
	for _, it := range items {
		if l := len(it.Key); l == 0 || l > 0xFFFF {
			return nil, ErrKeyLength
		}
		size += minItemLen - 1 + len(it.Key) + len(it.Payload)
	}
	b := make([]byte, 0, size)
	b = appendHeader(b, kindBulk, level)
	b = binary.BigEndian.AppendUint32(b, uint32(len(items)))
	for _, it := range items {
		b = binary.BigEndian.AppendUint16(b, uint16(len(it.Key)))
		b = append(b, it.Key...)
		b = appendPayload(b, it.Gen, it.Payload)
	}
	return b, nil
}

// reader walks a frame; the first short read latches ErrCorrupt.
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.b)-r.off {
		r.err = ErrCorrupt
		return nil
	}
	s := r.b[r.off : r.off+n]
	r.off += n
	return s
}

func (r *reader) u16() uint16 {
	if s := r.take(2); s != nil {
		return binary.BigEndian.Uint16(s)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if s := r.take(4); s != nil {
		return binary.BigEndian.Uint32(s)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if s := r.take(8); s != nil {
		return binary.BigEndian.Uint64(s)
	}
	return 0
}

func (r *reader) remaining() int { return len(r.b) - r.off }

func (r *reader) header(kind byte) int32 {
	if string(r.take(len(magic))) != magic {
		r.err = ErrCorrupt
		return 0
	}
	if v := r.take(2); v == nil || v[0] != version || v[1] != kind {
		r.err = ErrCorrupt
		return 0
	}
	return int32(r.u32())
}

// payload reads gen, sum and the payload and verifies the sum.
func (r *reader) payload() (uint64, []byte) {
	gen := r.u64()
	sum := r.u64()
	p := r.take(int(r.u32()))
	if r.err == nil && xxhash.Sum64(p) != sum {
		r.err = ErrChecksum
	}
	return gen, p
}

// DecodeSingle rejects short frames and trailing bytes.
func DecodeSingle(b []byte) (gen uint64, level int32, payload []byte, err error) {
	r := &reader{b: b}
	level = r.header(kindSingle)
	gen, payload = r.payload()
	if r.err == nil && r.remaining() != 0 {
		r.err = ErrCorrupt
	}
	if r.err != nil {
		return 0, 0, nil, r.err
	}
	return gen, level, payload, nil
}

// DecodeBulk rejects the whole frame when any item is damaged.
func DecodeBulk(b []byte) (level int32, items []BulkItem, err error) {
	r := &reader{b: b}
	level = r.header(kindBulk)
	n := int(r.u32())
	if r.err == nil && n > r.remaining()/minItemLen {
		r.err = ErrCorrupt
	}
	if r.err != nil {
		return 0, nil, r.err
	}

	items = make([]BulkItem, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		klen := int(r.u16())
		if r.err == nil && klen == 0 {
			r.err = ErrCorrupt
		}
		key := r.take(klen)
		gen, p := r.payload()
		items = append(items, BulkItem{Key: string(key), Gen: gen, Payload: p})
	}
	if r.err == nil && r.remaining() != 0 {
		r.err = ErrCorrupt
	}
	if r.err != nil {
		return 0, nil, r.err
	}
	return level, items, nil
}
