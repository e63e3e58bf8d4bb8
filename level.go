package mglevel

import (
	"time"

	"github.com/unkn0wn-root/mglevel/internal/util"
	"github.com/unkn0wn-root/mglevel/needs"
)

type requestMode uint8

const (
	modeUndef requestMode = iota
	modeRequest
	modeRelease
)

func (m requestMode) String() string {
	switch m {
	case modeRequest:
		return "request"
	case modeRelease:
		return "release"
	default:
		return "undef"
	}
}

// Level holds the data of one grid level, keyed by (name, producer).
//
// A Level is driven by a single goroutine; it does no locking. Values are
// produced lazily: a Get on a requested but missing value runs the
// producer's Build on this level.
type Level struct {
	id      int
	manager FactoryManager
	log     Logger
	hooks   Hooks

	// hierarchy wiring; prev indexes hier.levels, -1 when unset
	hier *Hierarchy
	prev int

	store *needs.Store[Factory]

	mode      requestMode
	declaring map[Factory]struct{}
	building  map[Factory]struct{}

	// requests made by the innermost request pass, undone if it fails
	requested *[]heldKey
}

type heldKey struct {
	name string
	f    Factory
}

// NewLevel creates a standalone level. Levels that belong to a hierarchy
// are created by Hierarchy.AddLevel.
func NewLevel(opts Options) *Level {
	return &Level{
		id:        opts.LevelID,
		manager:   opts.Manager,
		log:       util.Coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:     util.Coalesce[Hooks](opts.Hooks, NopHooks{}),
		prev:      -1,
		store:     needs.New[Factory](),
		declaring: make(map[Factory]struct{}),
		building:  make(map[Factory]struct{}),
	}
}

func (l *Level) LevelID() int         { return l.id }
func (l *Level) SetLevelID(levelID int) { l.id = levelID }

// FactoryManager returns the manager set on this level, which may be nil.
func (l *Level) FactoryManager() FactoryManager { return l.manager }

func (l *Level) SetFactoryManager(m FactoryManager) { l.manager = m }

// Hierarchy returns the owning hierarchy, or nil for standalone levels.
func (l *Level) Hierarchy() *Hierarchy { return l.hier }

// SetPreviousLevel links this level to the finer level stored at index idx
// of the owning hierarchy. idx must be below the level's own index; idx < 0
// clears the link.
func (l *Level) SetPreviousLevel(idx int) error {
	if idx < 0 {
		l.prev = -1
		return nil
	}
	if l.hier == nil {
		return &KeyError{Op: "set previous level", Level: l.id, Err: ErrNoHierarchy}
	}
	if _, ok := l.hier.Level(idx); !ok {
		return &KeyError{Op: "set previous level", Level: l.id, Err: ErrNoPreviousLevel}
	}
	if idx >= l.hier.indexOf(l) {
		return &KeyError{Op: "set previous level", Level: l.id, Err: ErrUsage}
	}
	l.prev = idx
	return nil
}

// PreviousLevel returns the next-finer level, if linked.
func (l *Level) PreviousLevel() (*Level, bool) {
	if l.hier == nil || l.prev < 0 {
		return nil, false
	}
	return l.hier.Level(l.prev)
}

// effectiveManager walks previous levels until one has a manager.
func (l *Level) effectiveManager() FactoryManager {
	cur := l
	for hops := 0; cur != nil; hops++ {
		if cur.manager != nil {
			return cur.manager
		}
		if cur.hier == nil || hops > cur.hier.NumLevels() {
			return nil
		}
		cur, _ = cur.PreviousLevel()
	}
	return nil
}

func (l *Level) keyErr(op, name string, f Factory, err, cause error) *KeyError {
	e := &KeyError{Op: op, Level: l.id, Name: name, Err: err, Cause: cause}
	if f != nil {
		e.Factory = FactoryName(f)
	}
	return e
}

// GetFactory resolves p for variable name. An explicit producer is returned
// as is and NoFactory maps to the user-data handle (see IsNoFactory). For
// Unspecified, available user data under name wins, then the level's
// FactoryManager; with neither, ErrNoDefaultFactory.
func (l *Level) GetFactory(name string, p Producer) (Factory, error) {
	return l.resolve("get factory", name, p)
}

func (l *Level) resolve(op, name string, p Producer) (Factory, error) {
	switch {
	case p.user:
		return userData, nil
	case p.f != nil:
		return p.f, nil
	}
	if l.store.IsAvailable(name, userData) {
		return userData, nil
	}
	if m := l.effectiveManager(); m != nil {
		if f, ok := m.DefaultFactory(name); ok && f != nil {
			return f, nil
		}
	}
	l.log.Warn("no default factory", Fields{"level": l.id, "name": name})
	return nil, l.keyErr(op, name, nil, ErrNoDefaultFactory, nil)
}

// Set stores user-supplied data. The entry is kept, so it survives every
// Release until Delete.
func (l *Level) Set(name string, v any) {
	l.store.Keep(name, userData)
	l.store.Set(name, userData, v)
}

// SetFrom stores v as produced by p. Factories call it from Build with
// From(self). Unspecified and NoFactory both store user data.
func (l *Level) SetFrom(name string, v any, p Producer) {
	if p.f == nil {
		l.Set(name, v)
		return
	}
	l.store.Set(name, p.f, v)
}

// Keep pins the entry so that releases never evict it.
func (l *Level) Keep(name string, p Producer) error {
	f, err := l.resolve("keep", name, p)
	if err != nil {
		return err
	}
	l.store.Keep(name, f)
	return nil
}

// IsKept reports whether the entry is pinned. Unresolvable keys are not.
func (l *Level) IsKept(name string, p Producer) bool {
	f, err := l.resolve("is kept", name, p)
	return err == nil && l.store.IsKept(name, f)
}

// IsAvailable reports whether a value is stored under the key.
func (l *Level) IsAvailable(name string, p Producer) bool {
	f, err := l.resolve("is available", name, p)
	return err == nil && l.store.IsAvailable(name, f)
}

// IsRequested reports whether the key has outstanding requests. It says
// nothing about whether the value exists.
func (l *Level) IsRequested(name string, p Producer) bool {
	return l.NumRequests(name, p) > 0
}

func (l *Level) NumRequests(name string, p Producer) int {
	f, err := l.resolve("num requests", name, p)
	if err != nil {
		return 0
	}
	return l.store.NumRequests(name, f)
}

// Delete removes the entry regardless of requests or keep. Inputs the
// producer still holds for it are released.
func (l *Level) Delete(name string, p Producer) error {
	f, err := l.resolve("delete", name, p)
	if err != nil {
		return err
	}
	held := l.store.InputsHeld(name, f)
	if !l.store.Delete(name, f) {
		return nil
	}
	l.log.Debug("deleted", l.fields(name, f))
	l.hooks.Deleted(l.id, name, FactoryName(f))
	if held {
		return l.ReleaseFactory(f)
	}
	return nil
}

// Request registers one more consumer of the key. The first request of a
// value that does not exist yet also requests everything its producer
// declares, so the whole input graph is counted before any Build runs.
func (l *Level) Request(name string, p Producer) error {
	f, err := l.resolve("request", name, p)
	if err != nil {
		return err
	}
	if f != userData && !l.store.IsAvailable(name, f) && !l.store.InputsHeld(name, f) {
		if err := l.RequestFactory(f); err != nil {
			return err
		}
		l.store.MarkInputsHeld(name, f)
	}
	l.store.Request(name, f)
	if l.requested != nil {
		*l.requested = append(*l.requested, heldKey{name, f})
	}
	return nil
}

// Release drops one consumer of the key. At zero requests an unkept value
// is evicted; if its producer never built it, the producer's own inputs are
// released as well. Releasing user data with no requests is a no-op.
func (l *Level) Release(name string, p Producer) error {
	f, err := l.resolve("release", name, p)
	if err != nil {
		return err
	}
	return l.release(name, f)
}

func (l *Level) release(name string, f Factory) error {
	if f == userData && l.store.NumRequests(name, f) == 0 {
		return nil
	}
	evicted, err := l.store.Release(name, f)
	if err != nil {
		l.log.Warn("release without request", l.fields(name, f))
		l.hooks.OverReleased(l.id, name, FactoryName(f))
		return l.keyErr("release", name, f, err, nil)
	}
	if evicted {
		l.log.Debug("evicted", l.fields(name, f))
		l.hooks.Evicted(l.id, name, FactoryName(f))
	}
	if l.store.NumRequests(name, f) == 0 && l.store.ClearInputsHeld(name, f) {
		return l.ReleaseFactory(f)
	}
	return nil
}

// RequestFactory requests every input f declares on this level.
func (l *Level) RequestFactory(f Factory) error {
	return l.declare(f, modeRequest)
}

// ReleaseFactory releases every input f declares on this level.
func (l *Level) ReleaseFactory(f Factory) error {
	return l.declare(f, modeRelease)
}

func (l *Level) declare(f Factory, m requestMode) error {
	_, err := l.declarePass(f, m)
	return err
}

// declarePass runs f.DeclareInput in mode m. In request mode it returns the
// keys the pass requested directly; when the pass fails they are released
// again so a failed request leaves every count as it was.
func (l *Level) declarePass(f Factory, m requestMode) ([]heldKey, error) {
	if f == nil || f == userData {
		return nil, nil
	}
	if _, busy := l.declaring[f]; busy {
		return nil, l.keyErr("declare input", "", f, ErrCycle, nil)
	}
	var made []heldKey
	l.declaring[f] = struct{}{}
	prevMode, prevReq := l.mode, l.requested
	l.mode = m
	l.requested = nil
	if m == modeRequest {
		l.requested = &made
	}
	defer func() {
		l.mode, l.requested = prevMode, prevReq
		delete(l.declaring, f)
	}()

	if err := f.DeclareInput(l); err != nil {
		if m == modeRequest {
			l.rollback(f, made)
		}
		return nil, err
	}
	return made, nil
}

func (l *Level) rollback(f Factory, made []heldKey) {
	for i := len(made) - 1; i >= 0; i-- {
		k := made[i]
		if err := l.release(k.name, k.f); err != nil {
			fl := l.fields(k.name, k.f)
			fl["consumer"] = FactoryName(f)
			fl["err"] = err
			l.log.Error("request rollback failed", fl)
		}
	}
	if len(made) > 0 {
		l.log.Debug("request rolled back", Fields{"level": l.id, "factory": FactoryName(f), "n": len(made)})
	}
}

// DeclareInput is the callback a factory uses from its own DeclareInput to
// name one value it reads. Depending on the current mode it becomes a
// Request or a Release.
func (l *Level) DeclareInput(name string, p Producer) error {
	switch l.mode {
	case modeRequest:
		return l.Request(name, p)
	case modeRelease:
		return l.Release(name, p)
	default:
		return l.keyErr("declare input", name, p.f, ErrUsage, nil)
	}
}

// DeclareDependencies propagates the current mode to all inputs of dep
// without naming a variable. requestOnly skips the release pass and
// releaseOnly the request pass; setting both is a usage error.
func (l *Level) DeclareDependencies(dep Factory, requestOnly, releaseOnly bool) error {
	if requestOnly && releaseOnly {
		return l.keyErr("declare dependencies", "", dep, ErrUsage, nil)
	}
	switch l.mode {
	case modeRequest:
		if releaseOnly {
			return nil
		}
		// dep's inputs belong to the enclosing pass and roll back with it
		made, err := l.declarePass(dep, modeRequest)
		if err == nil && l.requested != nil {
			*l.requested = append(*l.requested, made...)
		}
		return err
	case modeRelease:
		if !requestOnly {
			return l.ReleaseFactory(dep)
		}
	default:
		return l.keyErr("declare dependencies", "", dep, ErrUsage, nil)
	}
	return nil
}

// produce makes sure (name, f) is available, running f.Build if needed.
func (l *Level) produce(name string, f Factory) error {
	if l.store.IsAvailable(name, f) {
		return nil
	}
	if !l.store.IsRequested(name, f) && !l.store.IsKept(name, f) {
		l.log.Warn("get without request", l.fields(name, f))
		l.hooks.UnrequestedGet(l.id, name, FactoryName(f))
		return l.keyErr("get", name, f, ErrNotRequested, nil)
	}
	if f == userData {
		return l.keyErr("get", name, f, ErrNotAvailable, errNoProducer)
	}
	if _, busy := l.building[f]; busy {
		return l.keyErr("build", name, f, ErrCycle, nil)
	}

	// kept entries may get here without ever having been requested
	if !l.store.InputsHeld(name, f) {
		if err := l.RequestFactory(f); err != nil {
			return err
		}
		l.store.MarkInputsHeld(name, f)
	}

	l.log.Debug("building", l.fields(name, f))
	l.building[f] = struct{}{}
	start := time.Now()
	err := f.Build(l)
	took := time.Since(start)
	delete(l.building, f)
	l.hooks.FactoryBuilt(l.id, FactoryName(f), took, err)

	if err != nil {
		fl := l.fields(name, f)
		fl["err"] = err
		l.log.Error("build failed", fl)
		return l.keyErr("build", name, f, ErrBuildFailed, err)
	}
	l.log.Debug("built", Fields{"level": l.id, "factory": FactoryName(f), "took": took})

	if err := l.releaseConsumedInputs(f); err != nil {
		return err
	}
	if !l.store.IsAvailable(name, f) {
		return l.keyErr("build", name, f, ErrNotProduced, nil)
	}
	return nil
}

// releaseConsumedInputs drops the input requests held on behalf of every
// output of f that is now available. Build was their one consumer.
func (l *Level) releaseConsumedInputs(f Factory) error {
	for _, k := range l.store.KeysOf(f) {
		if !l.store.IsAvailable(k.Name, f) || !l.store.ClearInputsHeld(k.Name, f) {
			continue
		}
		if err := l.ReleaseFactory(f); err != nil {
			return err
		}
	}
	return nil
}

// reset drops every entry. Used by Hierarchy.Clear between rebuilds.
func (l *Level) reset() {
	l.store = needs.New[Factory]()
	l.mode = modeUndef
	clear(l.declaring)
	clear(l.building)
}
