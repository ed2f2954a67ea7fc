package storage

import (
	"context"
	"io"
	"time"
)

// Storage is the attachment blob store. Keys are stored filenames;
// the conversation record only keeps the key.
type Storage interface {
	// Upload writes a blob and returns its access URL.
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Download opens a blob for reading.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a blob. Missing blobs are not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether a blob is present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetFileInfo returns blob metadata.
	GetFileInfo(ctx context.Context, key string) (*FileInfo, error)

	// GetStorageType returns the backend name.
	GetStorageType() string
}

// FileInfo blob metadata.
type FileInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// StorageType backend names.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeOSS   StorageType = "oss"
)

// NotFoundError is returned by Download/GetFileInfo for absent keys.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return "file not found: " + e.Key
}

// IsNotFound reports whether err marks an absent blob.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}
