// Package checkpoint persists level values outside the Level so that an
// expensive setup product (a prolongator, an aggregation, a coarse matrix)
// can be restored into a fresh hierarchy instead of being rebuilt.
//
// Frames are guarded by per-key generations: Invalidate bumps the
// generation, and any frame written under an older one is dropped on the
// next Restore. Restore never fails on bad data; corrupt, foreign, stale or
// undecodable frames are deleted and reported as a miss.
//
//	ck, _ := checkpoint.New[*Prolongator](checkpoint.Options[*Prolongator]{
//	    Namespace: "poisson3d",
//	    Provider:  prov,
//	    Codec:     codec.Msgpack[*Prolongator]{},
//	})
//	if ok, _ := ck.Restore(ctx, lvl, "P", mglevel.From(pFact)); !ok {
//	    // build as usual, then
//	    _ = ck.Save(ctx, lvl, "P", mglevel.From(pFact))
//	}
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/unkn0wn-root/mglevel"
	c "github.com/unkn0wn-root/mglevel/codec"
	gen "github.com/unkn0wn-root/mglevel/genstore"
	"github.com/unkn0wn-root/mglevel/internal/util"
	"github.com/unkn0wn-root/mglevel/internal/wire"
	pr "github.com/unkn0wn-root/mglevel/provider"
)

const (
	defaultTTL          = time.Hour
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type SetCostFunc func(key string, raw []byte, isBulk bool, bulkCount int) int64

// Options configure a Checkpointer. Namespace, Provider and Codec are
// required.
type Options[V any] struct {
	Namespace string // isolates one problem/configuration from another
	Provider  pr.Provider
	Codec     c.Codec[V]

	GenStore        gen.GenStore   // nil => genstore.Local (in-process)
	Logger          mglevel.Logger // nil => NopLogger
	Hooks           Hooks          // nil => NopHooks
	TTL             time.Duration  // 0 => 1h
	ComputeSetCost  SetCostFunc    // nil => frame length in bytes
	CleanupInterval time.Duration  // local gens only; 0 => 1h
	GenRetention    time.Duration  // local gens only; 0 => 30d
	Disabled        bool
}

// Ref names one level entry in bulk calls.
type Ref struct {
	Name     string
	Producer mglevel.Producer
}

// Checkpointer saves and restores values of type V. It is safe for
// concurrent use as long as each Level is driven by one goroutine.
type Checkpointer[V any] struct {
	ns       string
	provider pr.Provider
	codec    c.Codec[V]
	gen      gen.GenStore
	log      mglevel.Logger
	hooks    Hooks
	ttl      time.Duration
	cost     SetCostFunc
	enabled  bool
}

func New[V any](opts Options[V]) (*Checkpointer[V], error) {
	if opts.Provider == nil {
		return nil, ErrNoProvider
	}
	if opts.Codec == nil {
		return nil, ErrNoCodec
	}
	if opts.Namespace == "" {
		return nil, ErrNoNamespace
	}

	ck := &Checkpointer[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		enabled:  !opts.Disabled,
		log:      util.Coalesce[mglevel.Logger](opts.Logger, mglevel.NopLogger{}),
		hooks:    util.Coalesce[Hooks](opts.Hooks, NopHooks{}),
		ttl:      util.Coalesce(opts.TTL, defaultTTL),
	}

	if opts.ComputeSetCost != nil {
		ck.cost = opts.ComputeSetCost
	} else {
		ck.cost = func(_ string, raw []byte, _ bool, _ int) int64 { return int64(len(raw)) }
	}

	if opts.GenStore != nil {
		ck.gen = opts.GenStore
	} else {
		ck.gen = gen.NewLocal(gen.LocalOptions{
			CleanupInterval: util.Coalesce(opts.CleanupInterval, defaultSweep),
			Retention:       util.Coalesce(opts.GenRetention, defaultGenRetention),
		})
	}
	return ck, nil
}

func (ck *Checkpointer[V]) Enabled() bool { return ck.enabled }

func (ck *Checkpointer[V]) Close(ctx context.Context) error {
	// gen store first, best effort
	if ck.gen != nil {
		_ = ck.gen.Close(ctx)
	}
	return ck.provider.Close(ctx)
}

// target is a resolved Ref.
type target struct {
	name string
	f    mglevel.Factory
	key  string
}

func (ck *Checkpointer[V]) resolve(lvl *mglevel.Level, name string, p mglevel.Producer) (target, error) {
	f, err := lvl.GetFactory(name, p)
	if err != nil {
		return target{}, err
	}
	return target{
		name: name,
		f:    f,
		key:  util.CheckpointKey(ck.ns, lvl.LevelID(), name, mglevel.FactoryName(f)),
	}, nil
}

// store puts a restored value back into the level, pinned so that releases
// during the next setup do not drop it.
func (t target) store(lvl *mglevel.Level, v any) {
	if mglevel.IsNoFactory(t.f) {
		lvl.Set(t.name, v)
		return
	}
	lvl.SetFrom(t.name, v, mglevel.From(t.f))
	_ = lvl.Keep(t.name, mglevel.From(t.f))
}

// SnapshotGen returns the generation a later SaveWithGen must still observe.
func (ck *Checkpointer[V]) SnapshotGen(ctx context.Context, lvl *mglevel.Level, name string, p mglevel.Producer) (uint64, error) {
	t, err := ck.resolve(lvl, name, p)
	if err != nil {
		return 0, err
	}
	return ck.gen.Snapshot(ctx, t.key)
}

// Save writes the value currently stored under (name, p). The value must be
// available on lvl.
func (ck *Checkpointer[V]) Save(ctx context.Context, lvl *mglevel.Level, name string, p mglevel.Producer) error {
	if !ck.enabled {
		return nil
	}
	t, err := ck.resolve(lvl, name, p)
	if err != nil {
		return err
	}
	return ck.save(ctx, lvl, t, ck.snapshotGen(ctx, t.key))
}

// SaveWithGen writes only if the key's generation still equals observed, so
// a value built before a concurrent Invalidate is never persisted.
func (ck *Checkpointer[V]) SaveWithGen(ctx context.Context, lvl *mglevel.Level, name string, p mglevel.Producer, observed uint64) error {
	if !ck.enabled {
		return nil
	}
	t, err := ck.resolve(lvl, name, p)
	if err != nil {
		return err
	}
	if ck.snapshotGen(ctx, t.key) != observed {
		ck.log.Debug("checkpoint save skipped (gen mismatch)", logFields(t, lvl, "obs", observed))
		return nil
	}
	return ck.save(ctx, lvl, t, observed)
}

func (ck *Checkpointer[V]) save(ctx context.Context, lvl *mglevel.Level, t target, g uint64) error {
	payload, err := ck.encode(lvl, t)
	if err != nil {
		return err
	}
	frame := wire.EncodeSingle(g, int32(lvl.LevelID()), payload)
	ok, err := ck.provider.Set(ctx, t.key, frame, ck.cost(t.key, frame, false, 1), ck.ttl)
	if err != nil {
		return err
	}
	if !ok {
		ck.hooks.ProviderSetRejected(t.key, false)
		ck.log.Debug("checkpoint rejected by provider (pressure)", logFields(t, lvl))
		return nil
	}
	ck.log.Debug("checkpoint saved", logFields(t, lvl, "gen", g, "bytes", len(frame)))
	return nil
}

func (ck *Checkpointer[V]) encode(lvl *mglevel.Level, t target) ([]byte, error) {
	v, ok, err := mglevel.Peek[V](lvl, t.name, mglevel.From(t.f))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("checkpoint: save %q on level %d: %w", t.name, lvl.LevelID(), mglevel.ErrNotAvailable)
	}
	return ck.codec.Encode(v)
}

// Restore loads a saved value into lvl and reports whether it did. A
// restored produced value is kept, so Get returns it without a Build.
// Only provider and resolution failures are returned as errors.
func (ck *Checkpointer[V]) Restore(ctx context.Context, lvl *mglevel.Level, name string, p mglevel.Producer) (bool, error) {
	if !ck.enabled {
		return false, nil
	}
	ts, err := ck.candidates(lvl, name, p)
	if err != nil {
		return false, err
	}
	return ck.restoreFirst(ctx, lvl, ts)
}

// candidates lists the targets a restore of (name, p) tries, in order. An
// Unspecified producer saved as user data resolves to NoFactory, but on a
// fresh level the data is not there yet, so that key goes first and the
// manager default second.
func (ck *Checkpointer[V]) candidates(lvl *mglevel.Level, name string, p mglevel.Producer) ([]target, error) {
	if !p.IsUnspecified() || lvl.IsAvailable(name, mglevel.NoFactory) {
		t, err := ck.resolve(lvl, name, p)
		if err != nil {
			return nil, err
		}
		return []target{t}, nil
	}
	user, err := ck.resolve(lvl, name, mglevel.NoFactory)
	if err != nil {
		return nil, err
	}
	def, err := ck.resolve(lvl, name, p)
	switch {
	case errors.Is(err, mglevel.ErrNoDefaultFactory):
		return []target{user}, nil
	case err != nil:
		return nil, err
	case def.key == user.key:
		return []target{user}, nil
	}
	return []target{user, def}, nil
}

func (ck *Checkpointer[V]) restoreFirst(ctx context.Context, lvl *mglevel.Level, ts []target) (bool, error) {
	for _, t := range ts {
		ok, err := ck.restoreTarget(ctx, lvl, t)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (ck *Checkpointer[V]) restoreTarget(ctx context.Context, lvl *mglevel.Level, t target) (bool, error) {
	raw, ok, err := ck.provider.Get(ctx, t.key)
	if err != nil || !ok {
		return false, err
	}
	g, level, payload, err := wire.DecodeSingle(raw)
	switch {
	case err != nil:
		ck.selfHeal(ctx, t.key, frameReason(err))
		return false, nil
	case int(level) != lvl.LevelID():
		ck.selfHeal(ctx, t.key, "level_mismatch")
		return false, nil
	case g != ck.snapshotGen(ctx, t.key):
		ck.selfHeal(ctx, t.key, "stale_gen")
		return false, nil
	}
	v, err := ck.codec.Decode(payload)
	if err != nil {
		ck.selfHeal(ctx, t.key, "decode")
		return false, nil
	}
	t.store(lvl, v)
	ck.log.Debug("checkpoint restored", logFields(t, lvl, "gen", g))
	return true, nil
}

// Invalidate makes every saved frame of (name, p) on lvl's level id stale
// and deletes the current one.
func (ck *Checkpointer[V]) Invalidate(ctx context.Context, lvl *mglevel.Level, name string, p mglevel.Producer) error {
	if !ck.enabled {
		return nil
	}
	t, err := ck.resolve(lvl, name, p)
	if err != nil {
		return err
	}
	newGen, bumpErr := ck.gen.Bump(ctx, t.key)
	delErr := ck.provider.Del(ctx, t.key)
	if bumpErr != nil || delErr != nil {
		ck.hooks.InvalidateOutage(t.key, bumpErr, delErr)
		ck.log.Error("checkpoint invalidate failed", logFields(t, lvl, "bump_err", bumpErr, "del_err", delErr))
		return &InvalidateError{Key: t.key, BumpErr: bumpErr, DelErr: delErr}
	}
	ck.log.Debug("checkpoint invalidated", logFields(t, lvl, "newGen", newGen))
	return nil
}

// InvalidateAll bumps every ref's generation in one round-trip, then deletes
// the single frames and the bulk frame for refs. Delete failures are joined
// into one *InvalidateError per key.
func (ck *Checkpointer[V]) InvalidateAll(ctx context.Context, lvl *mglevel.Level, refs []Ref) error {
	if !ck.enabled || len(refs) == 0 {
		return nil
	}
	ts, err := ck.resolveAll(lvl, refs)
	if err != nil {
		return err
	}
	keys := sortedKeys(ts)
	_, bumpErr := ck.gen.BumpMany(ctx, keys)

	var errs []error
	for _, k := range keys {
		delErr := ck.provider.Del(ctx, k)
		if bumpErr == nil && delErr == nil {
			continue
		}
		ck.hooks.InvalidateOutage(k, bumpErr, delErr)
		errs = append(errs, &InvalidateError{Key: k, BumpErr: bumpErr, DelErr: delErr})
	}
	// the bulk frame goes stale with its items; deleting it just frees space
	_ = ck.provider.Del(ctx, ck.bulkKey(lvl, keys))

	if len(errs) > 0 {
		ck.log.Error("checkpoint invalidate failed", mglevel.Fields{"level": lvl.LevelID(), "failed": len(errs), "err": bumpErr})
		return errors.Join(errs...)
	}
	ck.log.Debug("checkpoints invalidated", mglevel.Fields{"level": lvl.LevelID(), "n": len(keys)})
	return nil
}

// SaveAll writes refs as one bulk frame plus one single frame each. Every
// ref must be available.
func (ck *Checkpointer[V]) SaveAll(ctx context.Context, lvl *mglevel.Level, refs []Ref) error {
	if !ck.enabled || len(refs) == 0 {
		return nil
	}
	ts, err := ck.resolveAll(lvl, refs)
	if err != nil {
		return err
	}
	keys := sortedKeys(ts)
	gens, err := ck.gen.SnapshotMany(ctx, keys)
	if err != nil {
		return err
	}

	items := make([]wire.BulkItem, 0, len(ts))
	for _, k := range keys {
		t := ts[k]
		payload, err := ck.encode(lvl, t)
		if err != nil {
			return err
		}
		items = append(items, wire.BulkItem{Key: k, Gen: gens[k], Payload: payload})
	}
	frame, err := wire.EncodeBulk(int32(lvl.LevelID()), items)
	if err != nil {
		return err
	}

	bk := ck.bulkKey(lvl, keys)
	ok, err := ck.provider.Set(ctx, bk, frame, ck.cost(bk, frame, true, len(items)), ck.ttl)
	if err != nil {
		return err
	}
	if !ok {
		ck.hooks.ProviderSetRejected(bk, true)
		ck.log.Debug("bulk checkpoint rejected; seeding singles", mglevel.Fields{"level": lvl.LevelID(), "bulkKey": bk})
	}

	// singles too, so a subset can be restored on its own
	for _, k := range keys {
		if err := ck.save(ctx, lvl, ts[k], gens[k]); err != nil {
			return err
		}
	}
	return nil
}

// RestoreAll restores refs from their bulk frame, falling back to single
// frames. It returns the refs that could not be restored.
func (ck *Checkpointer[V]) RestoreAll(ctx context.Context, lvl *mglevel.Level, refs []Ref) (missing []Ref, err error) {
	if !ck.enabled {
		return append([]Ref(nil), refs...), nil
	}
	if len(refs) == 0 {
		return nil, nil
	}
	cands := make([][]target, len(refs))
	alt := false
	for i, r := range refs {
		if cands[i], err = ck.candidates(lvl, r.Name, r.Producer); err != nil {
			return nil, err
		}
		alt = alt || len(cands[i]) > 1
	}

	restored := make(map[string]bool, len(refs))
	ck.tryBulk(ctx, lvl, pick(cands, false), restored)
	if alt {
		ck.tryBulk(ctx, lvl, pick(cands, true), restored)
	}

	for i, r := range refs {
		if anyRestored(cands[i], restored) {
			continue
		}
		ok, err := ck.restoreFirst(ctx, lvl, cands[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, r)
		}
	}
	return missing, nil
}

func (ck *Checkpointer[V]) tryBulk(ctx context.Context, lvl *mglevel.Level, ts map[string]target, restored map[string]bool) {
	bk := ck.bulkKey(lvl, sortedKeys(ts))
	raw, ok, err := ck.provider.Get(ctx, bk)
	if err != nil || !ok {
		return
	}
	if reason := ck.restoreBulk(ctx, lvl, ts, raw, restored); reason != "" {
		ck.selfHeal(ctx, bk, reason)
	}
}

// pick takes the first candidate of every ref, or the last one if last.
func pick(cands [][]target, last bool) map[string]target {
	ts := make(map[string]target, len(cands))
	for _, cs := range cands {
		t := cs[0]
		if last {
			t = cs[len(cs)-1]
		}
		ts[t.key] = t
	}
	return ts
}

func anyRestored(ts []target, restored map[string]bool) bool {
	for _, t := range ts {
		if restored[t.key] {
			return true
		}
	}
	return false
}

// restoreBulk returns a self-heal reason when the whole frame is unusable.
func (ck *Checkpointer[V]) restoreBulk(ctx context.Context, lvl *mglevel.Level, ts map[string]target, raw []byte, restored map[string]bool) string {
	level, items, err := wire.DecodeBulk(raw)
	if err != nil {
		return frameReason(err)
	}
	if int(level) != lvl.LevelID() {
		return "level_mismatch"
	}
	storage := make([]string, len(items))
	for i, it := range items {
		storage[i] = it.Key
	}
	gens, err := ck.gen.SnapshotMany(ctx, storage)
	if err != nil {
		return ""
	}
	for _, it := range items {
		if _, ok := ts[it.Key]; !ok || it.Gen != gens[it.Key] {
			return "stale_gen"
		}
	}
	for _, it := range items {
		v, err := ck.codec.Decode(it.Payload)
		if err != nil {
			continue
		}
		ts[it.Key].store(lvl, v)
		restored[it.Key] = true
	}
	ck.log.Debug("bulk checkpoint restored", mglevel.Fields{"level": lvl.LevelID(), "n": len(restored)})
	return ""
}

// resolveAll returns the targets of refs by storage key.
func (ck *Checkpointer[V]) resolveAll(lvl *mglevel.Level, refs []Ref) (map[string]target, error) {
	ts := make(map[string]target, len(refs))
	for _, r := range refs {
		t, err := ck.resolve(lvl, r.Name, r.Producer)
		if err != nil {
			return nil, err
		}
		ts[t.key] = t
	}
	return ts, nil
}

func sortedKeys(ts map[string]target) []string {
	keys := make([]string, 0, len(ts))
	for k := range ts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (ck *Checkpointer[V]) bulkKey(lvl *mglevel.Level, sorted []string) string {
	return util.BulkKeySorted(fmt.Sprintf("ckptbulk:%s:L%d", ck.ns, lvl.LevelID()), sorted)
}

func logFields(t target, lvl *mglevel.Level, kv ...any) mglevel.Fields {
	f := mglevel.Fields{
		"level":   lvl.LevelID(),
		"name":    t.name,
		"factory": mglevel.FactoryName(t.f),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}

func (ck *Checkpointer[V]) snapshotGen(ctx context.Context, storageKey string) uint64 {
	g, err := ck.gen.Snapshot(ctx, storageKey)
	if err != nil {
		// treated as 0: saves still land, restores of newer frames self-heal
		ck.log.Warn("gen snapshot error", mglevel.Fields{"key": storageKey, "err": err})
		return 0
	}
	return g
}

func frameReason(err error) string {
	if errors.Is(err, wire.ErrChecksum) {
		return "checksum"
	}
	return "corrupt"
}

func (ck *Checkpointer[V]) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = ck.provider.Del(ctx, storageKey)
	ck.hooks.SelfHeal(storageKey, reason)
	ck.log.Debug("checkpoint dropped", mglevel.Fields{"key": storageKey, "reason": reason})
}
