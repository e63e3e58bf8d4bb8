package checkpoint

// Hooks lightweight callbacks for checkpoint events.
// Implementations MUST be cheap and non-blocking.
type Hooks interface {
	// A stored frame was dropped instead of restored. reason is one of
	// "corrupt", "checksum", "level_mismatch", "stale_gen", "decode".
	SelfHeal(storageKey, reason string)

	// The provider refused a write under pressure.
	ProviderSetRejected(storageKey string, isBulk bool)

	// Invalidate could not bump the generation or delete the frame.
	InvalidateOutage(storageKey string, bumpErr, delErr error)
}

type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) ProviderSetRejected(string, bool)      {}
func (NopHooks) InvalidateOutage(string, error, error) {}
