// Package storage defines the object storage operations the API performs itself.
// Uploads never pass through the service: clients POST straight to the bucket
// with a signed policy, so the interface only covers listing and removal.
// The MinIO driver works with any S3-compatible provider; the S3 driver talks to AWS directly.
package storage

import (
	"context"
	"time"
)

// Object describes one stored object.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Storage is the interface for inspecting and removing objects.
type Storage interface {
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Delete removes an object identified by key.
	Delete(ctx context.Context, key string) error
}
