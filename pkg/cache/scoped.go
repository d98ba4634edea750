package cache

// ScopedKeyer wraps a Keyer with a prefix so several wikis can share one
// cache backend without key collisions.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "wikipathways:")
//	keyer.DiagramKey(554) // "wikipathways:diagram:554"
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

// DiagramKey generates a prefixed diagram key.
func (k *ScopedKeyer) DiagramKey(pageID int64) string {
	return k.prefix + k.inner.DiagramKey(pageID)
}

// ConfigKey generates a prefixed viewer config key.
func (k *ScopedKeyer) ConfigKey(pageID int64, opts ConfigKeyOpts) string {
	return k.prefix + k.inner.ConfigKey(pageID, opts)
}
