package storage

import "context"

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)

	// Location is what callers report back for a stored key.
	Location(key string) string
	// Describe names the backend for humans ("S3", "Local Filesystem").
	Describe() string
	// Ping verifies the destination is reachable and writable.
	Ping(ctx context.Context) error
}

// ContentType is set on every uploaded object.
const ContentType = "application/octet-stream"
