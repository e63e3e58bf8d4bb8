package util

import (
	"strings"
	"testing"
)

func TestCheckpointKeyLayout(t *testing.T) {
	got := CheckpointKey("solver", 2, "P", "tentative")
	if got != "ckpt:solver:L2:P:tentative" {
		t.Fatalf("got %q", got)
	}
}

func TestBulkKeySortedShape(t *testing.T) {
	a := BulkKeySorted("bulk:ns", []string{"a", "b", "c"})
	if a != BulkKeySorted("bulk:ns", []string{"a", "b", "c"}) {
		t.Fatalf("bulk key not deterministic")
	}
	if !strings.HasPrefix(a, "bulk:ns:") || len(a) != len("bulk:ns:")+16 {
		t.Fatalf("unexpected shape %q", a)
	}
	if a == BulkKeySorted("bulk:ns", []string{"a", "b"}) {
		t.Fatalf("different member sets share a key")
	}
	// the separator keeps member boundaries apart
	if BulkKeySorted("p", []string{"ab", "c"}) == BulkKeySorted("p", []string{"a", "bc"}) {
		t.Fatalf("member boundaries collapsed")
	}
}

func TestCoalesce(t *testing.T) {
	if Coalesce(0, 5) != 5 || Coalesce(3, 5) != 3 || Coalesce("", "x") != "x" {
		t.Fatalf("Coalesce misbehaves")
	}
}
