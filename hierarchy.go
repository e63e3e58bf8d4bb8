package mglevel

// HierarchyOptions are shared by every level of a hierarchy.
type HierarchyOptions struct {
	Manager FactoryManager // set on the finest level; coarser levels fall back to it
	Logger  Logger
	Hooks   Hooks
}

// Hierarchy owns the ordered levels of one multigrid setup, finest first.
// Levels refer to their finer neighbour by index into it.
type Hierarchy struct {
	opts   HierarchyOptions
	levels []*Level
}

// NewHierarchy returns a hierarchy holding only the finest level (id 0).
func NewHierarchy(opts HierarchyOptions) *Hierarchy {
	h := &Hierarchy{opts: opts}
	h.AddLevel()
	return h
}

// AddLevel appends a coarser level linked to the current coarsest one.
func (h *Hierarchy) AddLevel() *Level {
	idx := len(h.levels)
	l := NewLevel(Options{
		LevelID: idx,
		Logger:  h.opts.Logger,
		Hooks:   h.opts.Hooks,
	})
	if idx == 0 {
		l.manager = h.opts.Manager
	}
	l.hier = h
	l.prev = idx - 1
	h.levels = append(h.levels, l)
	l.log.Debug("level added", Fields{"level": idx})
	return l
}

// Level returns the level at index i.
func (h *Hierarchy) Level(i int) (*Level, bool) {
	if i < 0 || i >= len(h.levels) {
		return nil, false
	}
	return h.levels[i], true
}

// indexOf returns l's position, or -1.
func (h *Hierarchy) indexOf(l *Level) int {
	for i, x := range h.levels {
		if x == l {
			return i
		}
	}
	return -1
}

func (h *Hierarchy) NumLevels() int { return len(h.levels) }

// Levels returns a copy of the level list, finest first.
func (h *Hierarchy) Levels() []*Level {
	out := make([]*Level, len(h.levels))
	copy(out, h.levels)
	return out
}

func (h *Hierarchy) Finest() *Level   { return h.levels[0] }
func (h *Hierarchy) Coarsest() *Level { return h.levels[len(h.levels)-1] }

// Clear drops every entry on every level, kept ones included. Levels and
// their wiring stay in place for the next setup.
func (h *Hierarchy) Clear() {
	for _, l := range h.levels {
		l.reset()
	}
}

// Truncate removes every level coarser than index n-1.
func (h *Hierarchy) Truncate(n int) {
	if n < 1 || n >= len(h.levels) {
		return
	}
	for _, l := range h.levels[n:] {
		l.hier = nil
		l.prev = -1
	}
	clear(h.levels[n:])
	h.levels = h.levels[:n]
}
