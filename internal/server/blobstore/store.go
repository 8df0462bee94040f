// Package blobstore is the byte store file contents live in. Keys are opaque;
// the facade generates them and never derives them from user-visible names.
package blobstore

import (
	"context"
	"time"
)

// Store puts, fetches and removes blobs, and hands out time-limited URLs for
// direct download.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
