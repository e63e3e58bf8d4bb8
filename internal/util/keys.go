package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// CheckpointKey is the provider key of one checkpointed level entry.
func CheckpointKey(ns string, level int, name, producer string) string {
	var b strings.Builder
	b.Grow(len("ckpt:") + len(ns) + 16 + len(name) + len(producer))
	b.WriteString("ckpt:")
	b.WriteString(ns)
	b.WriteString(":L")
	b.WriteString(strconv.Itoa(level))
	b.WriteByte(':')
	b.WriteString(name)
	b.WriteByte(':')
	b.WriteString(producer)
	return b.String()
}

// BulkKeySorted returns a composite key for members already sorted
// ascending: prefix plus a 64-bit hash of the joined members.
func BulkKeySorted(prefix string, sorted []string) string {
	d := xxhash.New()
	for i, k := range sorted {
		if i > 0 {
			_, _ = d.WriteString(",")
		}
		_, _ = d.WriteString(k)
	}
	return fmt.Sprintf("%s:%016x", prefix, d.Sum64())
}
