package storage

import (
	"context"
	"time"
)

// ObjectStore defines the interface for bucket operations on remote object storage
// This is a port that can be implemented by different infrastructure adapters
type ObjectStore interface {
	// Bucket returns the bucket this store operates on
	Bucket() string

	// List returns objects whose key starts with prefix, in the order the service returns them
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// PutFile uploads a local file under key
	PutFile(ctx context.Context, key, localPath, contentType string) error

	// Get downloads the whole object body
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object
	Delete(ctx context.Context, key string) error
}

// ObjectInfo represents metadata about a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ContentTypePNG is sent with every uploaded frame
const ContentTypePNG = "image/png"
