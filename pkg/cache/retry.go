package cache

import (
	"context"
	"time"
)

// RetryingCache wraps a Cache and retries Get and Set with exponential
// backoff when the backend reports a retryable failure. Delete is not
// retried; a failed delete is re-attempted naturally on the next write.
type RetryingCache struct {
	inner Cache
}

// WithRetry wraps a cache with retry behavior for transient backend
// failures. Intended for network-backed caches whose errors are marked
// with [Retryable].
func WithRetry(inner Cache) Cache {
	return &RetryingCache{inner: inner}
}

// Get retrieves a value, retrying transient failures.
func (c *RetryingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	var hit bool
	err := RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = c.inner.Get(ctx, key)
		return err
	})
	return data, hit, err
}

// Set stores a value, retrying transient failures.
func (c *RetryingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return RetryWithBackoff(ctx, func() error {
		return c.inner.Set(ctx, key, data, ttl)
	})
}

// Delete removes a value.
func (c *RetryingCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Close closes the underlying cache.
func (c *RetryingCache) Close() error {
	return c.inner.Close()
}

// Ensure RetryingCache implements Cache.
var _ Cache = (*RetryingCache)(nil)
