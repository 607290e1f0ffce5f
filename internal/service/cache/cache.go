package cache

import (
	"context"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
// A zero TTL keeps the entry until it is evicted.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Prefixed namespaces every key of an underlying cache.
type Prefixed struct {
	inner  BytesCache
	prefix string
}

func WithPrefix(inner BytesCache, prefix string) *Prefixed {
	return &Prefixed{inner: inner, prefix: prefix}
}

func (p *Prefixed) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.GetBytes(ctx, p.prefix+key)
}

func (p *Prefixed) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.inner.SetBytes(ctx, p.prefix+key, value, ttl)
}
