// Package cache provides caching for parsed tables, rendered fragments,
// and graph artifacts.
//
// Backends implement the [Cache] interface: a file-based cache for CLI
// usage, a Redis cache for multi-instance serving, and a null cache for
// tests or when caching is disabled. Keys are produced by a [Keyer] so
// every component derives them the same way; [ScopedKeyer] adds a prefix
// for namespace isolation.
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement.
// Values are opaque bytes; callers serialize their own types.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found
	// and fresh; expired or missing entries are a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A ttl of 0 means the entry
	// never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GraphKeyOpts distinguishes graph artifact variants.
type GraphKeyOpts struct {
	Format   string // "dot" or "svg"
	Detailed bool   // include type paths in node labels
}

// Keyer generates cache keys for the domain's cacheable artifacts.
type Keyer interface {
	// TableKey identifies the merged implementor table of one trait
	// within one doc root.
	TableKey(root, trait string) string

	// FragmentKey identifies the rendered fragment for a table.
	FragmentKey(tableHash string) string

	// GraphKey identifies a rendered graph artifact for a table.
	GraphKey(tableHash string, opts GraphKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TableKey generates a key for a parsed, merged trait table.
func (k *DefaultKeyer) TableKey(root, trait string) string {
	return hashKey("table", root, trait)
}

// FragmentKey generates a key for rendered fragment bytes.
func (k *DefaultKeyer) FragmentKey(tableHash string) string {
	return hashKey("fragment", tableHash)
}

// GraphKey generates a key for a graph artifact.
func (k *DefaultKeyer) GraphKey(tableHash string, opts GraphKeyOpts) string {
	return hashKey("graph", tableHash, opts.Format, opts.Detailed)
}
