package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when a shared backend such as Redis also holds keys of
// other applications.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "drawreel:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// QuantizeKey generates a prefixed key for quantization results.
func (k *ScopedKeyer) QuantizeKey(sourceHash string, opts QuantizeKeyOpts) string {
	return k.prefix + k.inner.QuantizeKey(sourceHash, opts)
}
