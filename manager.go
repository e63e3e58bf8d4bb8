package mglevel

import (
	"sort"
	"sync"
)

// MapManager is a FactoryManager backed by a name -> factory table.
// Names it does not know are looked up in Parent, if set.
// Safe for concurrent use; one manager is usually shared by many levels.
type MapManager struct {
	mu     sync.RWMutex
	m      map[string]Factory
	parent FactoryManager
}

var _ FactoryManager = (*MapManager)(nil)

func NewMapManager(parent FactoryManager) *MapManager {
	return &MapManager{m: make(map[string]Factory), parent: parent}
}

// SetFactory registers f as the default producer of name. Registering the
// same pair twice is a no-op; a different factory for a known name fails
// with ErrConflictingFactory (use Replace).
func (m *MapManager) SetFactory(name string, f Factory) error {
	if name == "" || f == nil {
		return ErrUsage
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.m[name]; ok {
		if old == f {
			return nil
		}
		return ErrConflictingFactory
	}
	m.m[name] = f
	return nil
}

// Replace registers f for name unconditionally.
func (m *MapManager) Replace(name string, f Factory) {
	m.mu.Lock()
	m.m[name] = f
	m.mu.Unlock()
}

func (m *MapManager) Remove(name string) {
	m.mu.Lock()
	delete(m.m, name)
	m.mu.Unlock()
}

func (m *MapManager) DefaultFactory(name string) (Factory, bool) {
	m.mu.RLock()
	f, ok := m.m[name]
	m.mu.RUnlock()
	if ok {
		return f, true
	}
	if m.parent != nil {
		return m.parent.DefaultFactory(name)
	}
	return nil, false
}

// ManagerEntry is one row of MapManager.Entries.
type ManagerEntry struct {
	Name    string
	Factory Factory
}

// Entries returns this manager's own table sorted by name (parent excluded).
func (m *MapManager) Entries() []ManagerEntry {
	m.mu.RLock()
	out := make([]ManagerEntry, 0, len(m.m))
	for n, f := range m.m {
		out = append(out, ManagerEntry{Name: n, Factory: f})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
