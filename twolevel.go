package mglevel

import "fmt"

// TwoLevel adapts f to the Factory contract. The level it is called with is
// the coarse level; the fine level is that level's previous level.
//
// The adapter is the factory's identity in the store, so create it once and
// reuse the returned value.
func TwoLevel(f TwoLevelFactory) Factory {
	return &twoLevel{f: f}
}

type twoLevel struct {
	f TwoLevelFactory
}

func (t *twoLevel) Name() string {
	if n, ok := t.f.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", t.f)
}

func (t *twoLevel) DeclareInput(coarse *Level) error {
	fine, ok := coarse.PreviousLevel()
	if !ok {
		return coarse.keyErr("declare input", "", t, ErrNoPreviousLevel, nil)
	}
	// inputs declared on the fine level follow the coarse level's mode
	prev := fine.mode
	fine.mode = coarse.mode
	defer func() { fine.mode = prev }()
	return t.f.DeclareInput(fine, coarse)
}

func (t *twoLevel) Build(coarse *Level) error {
	fine, ok := coarse.PreviousLevel()
	if !ok {
		return coarse.keyErr("build", "", t, ErrNoPreviousLevel, nil)
	}
	return t.f.Build(fine, coarse)
}
