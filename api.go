package mglevel

import (
	"fmt"
)

// Factory is a unit of computation that produces named values on a Level.
//
// DeclareInput is called while the Level is in request or release mode; the
// factory answers by calling Level.DeclareInput (or DeclareDependencies) for
// every value it reads. Build computes the outputs and stores them with
// Level.SetFrom(name, v, From(self)).
//
// Factory values are compared by identity, so implementations should be
// pointers to non-empty structs.
type Factory interface {
	DeclareInput(lvl *Level) error
	Build(lvl *Level) error
}

// TwoLevelFactory is a factory that reads from the next-finer level and
// writes to the coarse one. Wrap it with TwoLevel to use it as a Factory.
type TwoLevelFactory interface {
	DeclareInput(fine, coarse *Level) error
	Build(fine, coarse *Level) error
}

// FactoryManager resolves a variable name to its default producer.
type FactoryManager interface {
	DefaultFactory(name string) (Factory, bool)
}

// Producer names who generates a value. The zero value is Unspecified.
type Producer struct {
	f    Factory
	user bool
}

var (
	// Unspecified resolves to the configured default producer.
	Unspecified Producer
	// NoFactory marks user-supplied data. Such entries are always kept.
	NoFactory = Producer{user: true}
)

// From names an explicit producer. From(nil) is Unspecified.
func From(f Factory) Producer { return Producer{f: f} }

func (p Producer) IsUnspecified() bool { return p.f == nil && !p.user }
func (p Producer) IsNoFactory() bool   { return p.user }

// Factory returns the explicit producer, or nil.
func (p Producer) Factory() Factory { return p.f }

func (p Producer) String() string {
	switch {
	case p.user:
		return "NoFactory"
	case p.f == nil:
		return "Unspecified"
	default:
		return FactoryName(p.f)
	}
}

// noFactory is the store handle for user-supplied data.
type noFactory struct{ _ byte }

func (*noFactory) DeclareInput(*Level) error { return nil }
func (*noFactory) Build(*Level) error        { return errNoProducer }
func (*noFactory) Name() string              { return "NoFactory" }

var userData Factory = &noFactory{}

// IsNoFactory reports whether f is the handle GetFactory returns for
// user-supplied data.
func IsNoFactory(f Factory) bool { return f == userData }

// FactoryName returns a label for logs and diagnostics. Factories may
// implement Name() string or fmt.Stringer to control it.
func FactoryName(f Factory) string {
	switch v := f.(type) {
	case nil:
		return "Unspecified"
	case interface{ Name() string }:
		return v.Name()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%T", f)
}

// Options configure a standalone Level. Every field is optional.
type Options struct {
	LevelID int
	Manager FactoryManager // nil => defaults resolved through previous levels
	Logger  Logger         // nil => NopLogger
	Hooks   Hooks          // nil => NopHooks
}
