package checkpoint

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/mglevel"
	"github.com/unkn0wn-root/mglevel/codec"
	"github.com/unkn0wn-root/mglevel/internal/util"
	"github.com/unkn0wn-root/mglevel/internal/wire"
	"github.com/unkn0wn-root/mglevel/provider/ristretto"
)

// ==============================
// Test fixtures
// ==============================

type memProvider struct {
	mu       sync.Mutex
	m        map[string][]byte
	rejectOn func(key string) bool
	delErr   error
}

func newMem() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, k string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.m[k]
	return b, ok, nil
}

func (p *memProvider) Set(_ context.Context, k string, v []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rejectOn != nil && p.rejectOn(k) {
		return false, nil
	}
	p.m[k] = append([]byte(nil), v...)
	return true, nil
}

func (p *memProvider) Del(_ context.Context, k string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.delErr != nil {
		return p.delErr
	}
	delete(p.m, k)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(k string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[k]
	return ok
}

func (p *memProvider) put(k string, v []byte) {
	p.mu.Lock()
	p.m[k] = v
	p.mu.Unlock()
}

type recHooks struct {
	mu       sync.Mutex
	heals    []string
	rejected int
	outages  int
}

func (h *recHooks) SelfHeal(_, reason string) {
	h.mu.Lock()
	h.heals = append(h.heals, reason)
	h.mu.Unlock()
}
func (h *recHooks) ProviderSetRejected(string, bool)      { h.rejected++ }
func (h *recHooks) InvalidateOutage(string, error, error) { h.outages++ }

// prolongator stands in for an expensive setup factory.
type prolongator struct {
	name   string
	builds int
}

func (p *prolongator) Name() string                      { return p.name }
func (p *prolongator) DeclareInput(*mglevel.Level) error { return nil }
func (p *prolongator) Build(l *mglevel.Level) error {
	p.builds++
	l.SetFrom("P", []float64{1, 0.5, 0.25}, mglevel.From(p))
	return nil
}

const ns = "poisson"

func newCK(t *testing.T, prov *memProvider, h Hooks) *Checkpointer[[]float64] {
	t.Helper()
	ck, err := New[[]float64](Options[[]float64]{
		Namespace: ns,
		Provider:  prov,
		Codec:     codec.Msgpack[[]float64]{},
		Hooks:     h,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = ck.Close(context.Background()) })
	return ck
}

func builtLevel(t *testing.T, pf *prolongator) *mglevel.Level {
	t.Helper()
	l := mglevel.NewLevel(mglevel.Options{})
	if err := l.Keep("P", mglevel.From(pf)); err != nil {
		t.Fatal(err)
	}
	if _, err := mglevel.Get[[]float64](l, "P", mglevel.From(pf)); err != nil {
		t.Fatalf("build: %v", err)
	}
	return l
}

// ==============================
// Single frames
// ==============================

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New[int](Options[int]{Namespace: ns, Codec: codec.JSON[int]{}}); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("want ErrNoProvider, got %v", err)
	}
	if _, err := New[int](Options[int]{Namespace: ns, Provider: newMem()}); !errors.Is(err, ErrNoCodec) {
		t.Fatalf("want ErrNoCodec, got %v", err)
	}
	if _, err := New[int](Options[int]{Provider: newMem(), Codec: codec.JSON[int]{}}); !errors.Is(err, ErrNoNamespace) {
		t.Fatalf("want ErrNoNamespace, got %v", err)
	}
}

func TestSaveRestoreUserData(t *testing.T) {
	ctx := context.Background()
	prov := newMem()
	ck := newCK(t, prov, nil)

	src := mglevel.NewLevel(mglevel.Options{})
	src.Set("Nullspace", []float64{1, 1, 1})
	if err := ck.Save(ctx, src, "Nullspace", mglevel.NoFactory); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !prov.has(util.CheckpointKey(ns, 0, "Nullspace", "NoFactory")) {
		t.Fatalf("frame not stored under the expected key")
	}

	dst := mglevel.NewLevel(mglevel.Options{})
	ok, err := ck.Restore(ctx, dst, "Nullspace", mglevel.NoFactory)
	if err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	v, err := mglevel.Get[[]float64](dst, "Nullspace", mglevel.Unspecified)
	if err != nil || len(v) != 3 || v[2] != 1 {
		t.Fatalf("restored value wrong: %v err=%v", v, err)
	}
	if !dst.IsKept("Nullspace", mglevel.NoFactory) {
		t.Fatalf("restored user data must be kept")
	}
}

// TestRestoreUnspecified: a fresh level has no user data yet, so an
// Unspecified restore must find a NoFactory frame before consulting the
// manager, and still reach the default's frame when that is what was saved.
func TestRestoreUnspecified(t *testing.T) {
	ctx := context.Background()
	withDefault := func(name string, f mglevel.Factory) func() *mglevel.Level {
		return func() *mglevel.Level {
			m := mglevel.NewMapManager(nil)
			if err := m.SetFactory(name, f); err != nil {
				t.Fatal(err)
			}
			return mglevel.NewLevel(mglevel.Options{Manager: m})
		}
	}
	bare := func() *mglevel.Level { return mglevel.NewLevel(mglevel.Options{}) }
	pf := &prolongator{name: "tentative"}

	cases := []struct {
		name     string
		varName  string
		newLevel func() *mglevel.Level
		user     bool
	}{
		{"user data, no manager", "Nullspace", bare, true},
		{"user data shadows manager default", "P", withDefault("P", pf), true},
		{"manager default", "P", withDefault("P", pf), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ck := newCK(t, newMem(), nil)
			src := tc.newLevel()
			if tc.user {
				src.Set(tc.varName, []float64{1, 1, 1})
			} else {
				if err := src.Keep(tc.varName, mglevel.Unspecified); err != nil {
					t.Fatal(err)
				}
				if _, err := mglevel.Get[[]float64](src, tc.varName, mglevel.Unspecified); err != nil {
					t.Fatalf("build: %v", err)
				}
			}
			if err := ck.Save(ctx, src, tc.varName, mglevel.Unspecified); err != nil {
				t.Fatalf("Save: %v", err)
			}

			builds := pf.builds
			dst := tc.newLevel()
			ok, err := ck.Restore(ctx, dst, tc.varName, mglevel.Unspecified)
			if err != nil || !ok {
				t.Fatalf("Restore: ok=%v err=%v", ok, err)
			}
			if got := dst.IsAvailable(tc.varName, mglevel.NoFactory); got != tc.user {
				t.Fatalf("user data available=%v, want %v", got, tc.user)
			}
			if _, err := mglevel.Get[[]float64](dst, tc.varName, mglevel.Unspecified); err != nil {
				t.Fatalf("Get: %v", err)
			}
			if pf.builds != builds {
				t.Fatalf("restored value was rebuilt")
			}
		})
	}
}

func TestRestoreAllUnspecifiedFromBulk(t *testing.T) {
	ctx := context.Background()
	prov := newMem()
	ck := newCK(t, prov, nil)
	pf := &prolongator{name: "tentative"}
	newLevel := func() *mglevel.Level {
		m := mglevel.NewMapManager(nil)
		if err := m.SetFactory("Nullspace", pf); err != nil {
			t.Fatal(err)
		}
		return mglevel.NewLevel(mglevel.Options{Manager: m})
	}
	src := newLevel()
	src.Set("Nullspace", []float64{1, 1})
	src.Set("A", []float64{4})

	refs := []Ref{{"A", mglevel.NoFactory}, {"Nullspace", mglevel.Unspecified}}
	if err := ck.SaveAll(ctx, src, refs); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	_ = prov.Del(ctx, util.CheckpointKey(ns, 0, "A", "NoFactory"))
	_ = prov.Del(ctx, util.CheckpointKey(ns, 0, "Nullspace", "NoFactory"))

	dst := newLevel()
	missing, err := ck.RestoreAll(ctx, dst, refs)
	if err != nil || len(missing) != 0 {
		t.Fatalf("RestoreAll: missing=%v err=%v", missing, err)
	}
	if !dst.IsAvailable("Nullspace", mglevel.NoFactory) {
		t.Fatalf("Nullspace not restored as user data")
	}
}

func TestRestoredProductSkipsBuild(t *testing.T) {
	ctx := context.Background()
	ck := newCK(t, newMem(), nil)
	pf := &prolongator{name: "tentative"}

	src := builtLevel(t, pf)
	if err := ck.Save(ctx, src, "P", mglevel.From(pf)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := mglevel.NewLevel(mglevel.Options{})
	if ok, err := ck.Restore(ctx, dst, "P", mglevel.From(pf)); err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	if !dst.IsKept("P", mglevel.From(pf)) {
		t.Fatalf("restored product must be kept")
	}
	v, err := mglevel.Get[[]float64](dst, "P", mglevel.From(pf))
	if err != nil || v[1] != 0.5 {
		t.Fatalf("Get after restore: %v err=%v", v, err)
	}
	if pf.builds != 1 {
		t.Fatalf("builds=%d want 1 (only the source level)", pf.builds)
	}
}

func TestRestoreMiss(t *testing.T) {
	ck := newCK(t, newMem(), nil)
	l := mglevel.NewLevel(mglevel.Options{})
	ok, err := ck.Restore(context.Background(), l, "A", mglevel.NoFactory)
	if err != nil || ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
}

func TestSaveUnavailable(t *testing.T) {
	ck := newCK(t, newMem(), nil)
	l := mglevel.NewLevel(mglevel.Options{})
	err := ck.Save(context.Background(), l, "P", mglevel.From(&prolongator{name: "x"}))
	if !errors.Is(err, mglevel.ErrNotAvailable) {
		t.Fatalf("want ErrNotAvailable, got %v", err)
	}
}

func TestSaveUnresolvable(t *testing.T) {
	ck := newCK(t, newMem(), nil)
	l := mglevel.NewLevel(mglevel.Options{})
	err := ck.Save(context.Background(), l, "B", mglevel.Unspecified)
	if !errors.Is(err, mglevel.ErrNoDefaultFactory) {
		t.Fatalf("want ErrNoDefaultFactory, got %v", err)
	}
}

func TestRestoreSelfHeals(t *testing.T) {
	ctx := context.Background()
	key := util.CheckpointKey(ns, 0, "A", "NoFactory")

	cases := []struct {
		name   string
		frame  func(ck *Checkpointer[[]float64]) []byte
		reason string
	}{
		{"corrupt", func(*Checkpointer[[]float64]) []byte { return []byte("garbage") }, "corrupt"},
		{"checksum", func(*Checkpointer[[]float64]) []byte {
			f := wire.EncodeSingle(0, 0, []byte{0x91, 0x01})
			f[len(f)-1] ^= 0xff
			return f
		}, "checksum"},
		{"level", func(*Checkpointer[[]float64]) []byte {
			return wire.EncodeSingle(0, 5, []byte{0x90})
		}, "level_mismatch"},
		{"stale", func(ck *Checkpointer[[]float64]) []byte {
			_, _ = ck.gen.Bump(ctx, key)
			return wire.EncodeSingle(0, 0, []byte{0x90})
		}, "stale_gen"},
		{"decode", func(*Checkpointer[[]float64]) []byte {
			return wire.EncodeSingle(0, 0, []byte{0xc1})
		}, "decode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prov := newMem()
			h := &recHooks{}
			ck := newCK(t, prov, h)
			prov.put(key, tc.frame(ck))

			l := mglevel.NewLevel(mglevel.Options{})
			ok, err := ck.Restore(ctx, l, "A", mglevel.NoFactory)
			if err != nil || ok {
				t.Fatalf("ok=%v err=%v", ok, err)
			}
			if prov.has(key) {
				t.Fatalf("bad frame not deleted")
			}
			if len(h.heals) != 1 || h.heals[0] != tc.reason {
				t.Fatalf("heals=%v want [%s]", h.heals, tc.reason)
			}
			if l.IsAvailable("A", mglevel.NoFactory) {
				t.Fatalf("level touched on failed restore")
			}
		})
	}
}

func TestInvalidateMakesOldFramesStale(t *testing.T) {
	ctx := context.Background()
	prov := newMem()
	h := &recHooks{}
	ck := newCK(t, prov, h)
	pf := &prolongator{name: "tentative"}
	src := builtLevel(t, pf)

	if err := ck.Save(ctx, src, "P", mglevel.From(pf)); err != nil {
		t.Fatal(err)
	}
	key := util.CheckpointKey(ns, 0, "P", "tentative")
	old, _, _ := prov.Get(ctx, key)

	if err := ck.Invalidate(ctx, src, "P", mglevel.From(pf)); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if prov.has(key) {
		t.Fatalf("Invalidate must delete the frame")
	}

	// a replica that missed the delete still holds the old frame
	prov.put(key, old)
	dst := mglevel.NewLevel(mglevel.Options{})
	if ok, _ := ck.Restore(ctx, dst, "P", mglevel.From(pf)); ok {
		t.Fatalf("stale frame restored")
	}
	if len(h.heals) != 1 || h.heals[0] != "stale_gen" {
		t.Fatalf("heals=%v", h.heals)
	}

	// a fresh save under the new generation restores again
	if err := ck.Save(ctx, src, "P", mglevel.From(pf)); err != nil {
		t.Fatal(err)
	}
	if ok, err := ck.Restore(ctx, dst, "P", mglevel.From(pf)); !ok || err != nil {
		t.Fatalf("restore after resave: ok=%v err=%v", ok, err)
	}
}

func TestSaveWithGenSkipsAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	prov := newMem()
	ck := newCK(t, prov, nil)
	pf := &prolongator{name: "tentative"}
	l := builtLevel(t, pf)

	obs, err := ck.SnapshotGen(ctx, l, "P", mglevel.From(pf))
	if err != nil {
		t.Fatal(err)
	}
	if err := ck.Invalidate(ctx, l, "P", mglevel.From(pf)); err != nil {
		t.Fatal(err)
	}
	if err := ck.SaveWithGen(ctx, l, "P", mglevel.From(pf), obs); err != nil {
		t.Fatal(err)
	}
	if prov.has(util.CheckpointKey(ns, 0, "P", "tentative")) {
		t.Fatalf("stale SaveWithGen wrote a frame")
	}

	obs, _ = ck.SnapshotGen(ctx, l, "P", mglevel.From(pf))
	if err := ck.SaveWithGen(ctx, l, "P", mglevel.From(pf), obs); err != nil {
		t.Fatal(err)
	}
	if !prov.has(util.CheckpointKey(ns, 0, "P", "tentative")) {
		t.Fatalf("current SaveWithGen did not write")
	}
}

func TestInvalidateReportsOutage(t *testing.T) {
	prov := newMem()
	prov.delErr = errors.New("connection reset")
	h := &recHooks{}
	ck := newCK(t, prov, h)
	l := mglevel.NewLevel(mglevel.Options{})

	err := ck.Invalidate(context.Background(), l, "A", mglevel.NoFactory)
	var ie *InvalidateError
	if !errors.As(err, &ie) || ie.DelErr == nil || ie.BumpErr != nil {
		t.Fatalf("want InvalidateError with DelErr, got %v", err)
	}
	if !errors.Is(err, prov.delErr) {
		t.Fatalf("InvalidateError must unwrap to the delete error")
	}
	if h.outages != 1 {
		t.Fatalf("outages=%d", h.outages)
	}
}

func TestProviderRejectionIsNotAnError(t *testing.T) {
	prov := newMem()
	prov.rejectOn = func(string) bool { return true }
	h := &recHooks{}
	ck := newCK(t, prov, h)
	l := mglevel.NewLevel(mglevel.Options{})
	l.Set("A", []float64{2})

	if err := ck.Save(context.Background(), l, "A", mglevel.NoFactory); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if h.rejected != 1 {
		t.Fatalf("rejected=%d", h.rejected)
	}
}

func TestDisabledIsNoop(t *testing.T) {
	prov := newMem()
	ck, err := New[[]float64](Options[[]float64]{
		Namespace: ns, Provider: prov, Codec: codec.Msgpack[[]float64]{}, Disabled: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	l := mglevel.NewLevel(mglevel.Options{})
	l.Set("A", []float64{1})
	if err := ck.Save(context.Background(), l, "A", mglevel.NoFactory); err != nil || len(prov.m) != 0 {
		t.Fatalf("disabled Save wrote: err=%v n=%d", err, len(prov.m))
	}
	if ok, _ := ck.Restore(context.Background(), l, "A", mglevel.NoFactory); ok {
		t.Fatalf("disabled Restore hit")
	}
}

// ==============================
// Bulk frames
// ==============================

func TestSaveAllRestoreAllFromBulk(t *testing.T) {
	ctx := context.Background()
	prov := newMem()
	ck := newCK(t, prov, nil)
	pf := &prolongator{name: "tentative"}
	src := builtLevel(t, pf)
	src.Set("Nullspace", []float64{1, 1})

	refs := []Ref{{"P", mglevel.From(pf)}, {"Nullspace", mglevel.NoFactory}}
	if err := ck.SaveAll(ctx, src, refs); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	// singles gone: the bulk frame alone must serve
	_ = prov.Del(ctx, util.CheckpointKey(ns, 0, "P", "tentative"))
	_ = prov.Del(ctx, util.CheckpointKey(ns, 0, "Nullspace", "NoFactory"))

	dst := mglevel.NewLevel(mglevel.Options{})
	missing, err := ck.RestoreAll(ctx, dst, refs)
	if err != nil || len(missing) != 0 {
		t.Fatalf("RestoreAll: missing=%v err=%v", missing, err)
	}
	if !dst.IsAvailable("P", mglevel.From(pf)) || !dst.IsAvailable("Nullspace", mglevel.NoFactory) {
		t.Fatalf("bulk restore incomplete")
	}
}

func TestRestoreAllFallsBackToSingles(t *testing.T) {
	ctx := context.Background()
	prov := newMem()
	h := &recHooks{}
	ck := newCK(t, prov, h)
	pf := &prolongator{name: "tentative"}
	src := builtLevel(t, pf)
	src.Set("Nullspace", []float64{1, 1})

	refs := []Ref{{"P", mglevel.From(pf)}, {"Nullspace", mglevel.NoFactory}}
	if err := ck.SaveAll(ctx, src, refs); err != nil {
		t.Fatal(err)
	}
	if err := ck.Invalidate(ctx, src, "P", mglevel.From(pf)); err != nil {
		t.Fatal(err)
	}

	dst := mglevel.NewLevel(mglevel.Options{})
	missing, err := ck.RestoreAll(ctx, dst, refs)
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0].Name != "P" {
		t.Fatalf("missing=%v want [P]", missing)
	}
	if !dst.IsAvailable("Nullspace", mglevel.NoFactory) {
		t.Fatalf("single fallback did not restore Nullspace")
	}
	if len(h.heals) == 0 || h.heals[0] != "stale_gen" {
		t.Fatalf("stale bulk not dropped: %v", h.heals)
	}
}

func TestSaveAllRequiresEveryValue(t *testing.T) {
	ck := newCK(t, newMem(), nil)
	l := mglevel.NewLevel(mglevel.Options{})
	l.Set("A", []float64{1})
	err := ck.SaveAll(context.Background(), l, []Ref{{"A", mglevel.NoFactory}, {"B", mglevel.NoFactory}})
	if !errors.Is(err, mglevel.ErrNotAvailable) {
		t.Fatalf("want ErrNotAvailable, got %v", err)
	}
}

func TestInvalidateAllDropsSinglesAndBulk(t *testing.T) {
	ctx := context.Background()
	prov := newMem()
	ck := newCK(t, prov, nil)
	pf := &prolongator{name: "tentative"}
	src := builtLevel(t, pf)
	src.Set("Nullspace", []float64{1, 1})

	refs := []Ref{{"P", mglevel.From(pf)}, {"Nullspace", mglevel.NoFactory}}
	if err := ck.SaveAll(ctx, src, refs); err != nil {
		t.Fatal(err)
	}
	bulk := ck.bulkKey(src, []string{
		util.CheckpointKey(ns, 0, "Nullspace", "NoFactory"),
		util.CheckpointKey(ns, 0, "P", "tentative"),
	})
	if !prov.has(bulk) {
		t.Fatalf("bulk frame not written")
	}

	if err := ck.InvalidateAll(ctx, src, refs); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	if prov.has(bulk) || prov.has(util.CheckpointKey(ns, 0, "P", "tentative")) {
		t.Fatalf("frames survived InvalidateAll")
	}
	for _, r := range refs {
		g, err := ck.SnapshotGen(ctx, src, r.Name, r.Producer)
		if err != nil || g != 1 {
			t.Fatalf("%s gen=%d err=%v want 1", r.Name, g, err)
		}
	}
	missing, err := ck.RestoreAll(ctx, mglevel.NewLevel(mglevel.Options{}), refs)
	if err != nil || len(missing) != 2 {
		t.Fatalf("missing=%v err=%v", missing, err)
	}
}

func TestInvalidateAllJoinsOutages(t *testing.T) {
	ctx := context.Background()
	prov := newMem()
	h := &recHooks{}
	ck := newCK(t, prov, h)
	l := mglevel.NewLevel(mglevel.Options{})
	l.Set("A", []float64{1})
	l.Set("B", []float64{2})

	boom := errors.New("provider down")
	prov.delErr = boom
	err := ck.InvalidateAll(ctx, l, []Ref{{"A", mglevel.NoFactory}, {"B", mglevel.NoFactory}})
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped provider error, got %v", err)
	}
	var ie *InvalidateError
	if !errors.As(err, &ie) || ie.DelErr == nil || ie.BumpErr != nil {
		t.Fatalf("want *InvalidateError with DelErr only, got %#v", ie)
	}
	if h.outages != 2 {
		t.Fatalf("outages=%d want 2", h.outages)
	}
}

// ==============================
// Real providers
// ==============================

func TestRistrettoBackedCheckpoint(t *testing.T) {
	ctx := context.Background()
	rp, err := ristretto.New(ristretto.Config{MaxBytes: 1 << 20, ExpectedFrames: 64})
	if err != nil {
		t.Fatal(err)
	}
	ck, err := New[[]float64](Options[[]float64]{
		Namespace: ns,
		Provider:  rp,
		Codec:     codec.MustCBOR[[]float64](codec.CBOROptions{Deterministic: true}),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ck.Close(ctx) })

	pf := &prolongator{name: "tentative"}
	src := builtLevel(t, pf)
	if err := ck.Save(ctx, src, "P", mglevel.From(pf)); err != nil {
		t.Fatal(err)
	}
	rp.Wait()

	dst := mglevel.NewLevel(mglevel.Options{})
	ok, err := ck.Restore(ctx, dst, "P", mglevel.From(pf))
	if err != nil || !ok {
		t.Fatalf("Restore via ristretto: ok=%v err=%v", ok, err)
	}
}
