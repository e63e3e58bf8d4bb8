// Package mglevel implements the per-level data store of a multigrid setup.
// Factories declare what they read, values are computed at most once on
// demand, and intermediate results are dropped as soon as their last
// consumer releases them.
//
// Components:
//   - Level: keyed store for one grid level. A key is a variable name plus
//     the producing Factory; the same name from two factories is two entries.
//   - Factory: DeclareInput + Build. Build stores outputs with SetFrom.
//   - FactoryManager: default producer per name (MapManager is provided).
//   - Hierarchy: ordered levels, finest first; levels point to their finer
//     neighbour by index.
//   - needs: the underlying ref-counted store.
//
// Producers:
//
//	Unspecified   resolve via user data, then the FactoryManager
//	NoFactory     user-supplied; always kept
//	From(f)       explicit producer
//
// Lifecycle of a produced key:
//
//	Unrequested -> Requested -> Built -> Released -> Evicted
//	Keep / user Set -> Kept (left only through Delete)
//
// Typical flow:
//
//	lvl.Set("A", matrix)                         // user data on the finest level
//	_ = lvl.RequestFactory(smoother)             // counts the whole input graph
//	s, err := mglevel.Get[Smoother](lvl, "Smoother", mglevel.From(smootherFact))
//	_ = lvl.ReleaseFactory(smoother)             // intermediates evicted
package mglevel
