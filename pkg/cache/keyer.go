package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Key type prefixes. They double as the keyType reported to observability hooks.
const (
	KeyTypeDiagram = "diagram"
	KeyTypeConfig  = "config"
)

// Keyer builds cache keys for the values the viewer stores.
type Keyer interface {
	// DiagramKey is the key of a page's stored pathway diagram JSON.
	DiagramKey(pageID int64) string

	// ConfigKey is the key of a rendered viewer config for a page.
	ConfigKey(pageID int64, opts ConfigKeyOpts) string
}

// ConfigKeyOpts are the inputs that change a rendered viewer config.
type ConfigKeyOpts struct {
	Theme      string   `json:"theme"`
	Highlights []string `json:"highlights,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DiagramKey returns "diagram:<pageID>".
func (DefaultKeyer) DiagramKey(pageID int64) string {
	return fmt.Sprintf("%s:%d", KeyTypeDiagram, pageID)
}

// ConfigKey returns "config:<pageID>:<hash(opts)>".
func (DefaultKeyer) ConfigKey(pageID int64, opts ConfigKeyOpts) string {
	return hashKey(fmt.Sprintf("%s:%d", KeyTypeConfig, pageID), opts)
}

// KeyType returns the key type prefix of key, skipping any scope prefix.
// It returns "unknown" when no known type is present.
func KeyType(key string) string {
	for _, t := range []string{KeyTypeDiagram, KeyTypeConfig} {
		if strings.HasPrefix(key, t+":") || strings.Contains(key, ":"+t+":") {
			return t
		}
	}
	return "unknown"
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
