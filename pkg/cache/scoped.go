package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when one cache backend is shared between doc roots or
// deployments that must not see each other's entries.
//
// Example usage:
//
//	// Per-docroot keys
//	rootKeyer := NewScopedKeyer(NewDefaultKeyer(), "root:a1b2c3:")
//
//	// Shared keys
//	globalKeyer := NewDefaultKeyer()
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

// TableKey generates a prefixed key for a parsed trait table.
func (k *ScopedKeyer) TableKey(root, trait string) string {
	return k.prefix + k.inner.TableKey(root, trait)
}

// FragmentKey generates a prefixed key for rendered fragment bytes.
func (k *ScopedKeyer) FragmentKey(tableHash string) string {
	return k.prefix + k.inner.FragmentKey(tableHash)
}

// GraphKey generates a prefixed key for a graph artifact.
func (k *ScopedKeyer) GraphKey(tableHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(tableHash, opts)
}
