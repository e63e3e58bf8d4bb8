package mglevel

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; Level calls them inline.
type Hooks interface {
	// A factory's Build returned. err is the factory's own error, nil on success.
	FactoryBuilt(level int, factory string, took time.Duration, err error)

	// The last Release dropped a produced value.
	Evicted(level int, name, factory string)

	// Release was called with no outstanding Request.
	OverReleased(level int, name, factory string)

	// Get hit a value that was neither requested nor kept.
	UnrequestedGet(level int, name, factory string)

	// Delete removed an entry.
	Deleted(level int, name, factory string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) FactoryBuilt(int, string, time.Duration, error) {}
func (NopHooks) Evicted(int, string, string)                    {}
func (NopHooks) OverReleased(int, string, string)               {}
func (NopHooks) UnrequestedGet(int, string, string)             {}
func (NopHooks) Deleted(int, string, string)                    {}
