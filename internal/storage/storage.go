package storage

import (
	"context"
	"io"
	"time"
)

// Package storage holds the raw-document archive abstraction. Uploaded report
// files are transient by default; when an S3-compatible backend is configured
// the original bytes are kept under an opaque key for later audit.

// ObjectInfo contains basic information about an archived object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is the archive client interface. Documents are small (the upload
// ceiling is 10 MiB) so Put takes the full byte slice the ingest path already
// holds.
type Storage interface {
	// Put stores the document bytes under the given key.
	Put(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error)
	// Get retrieves an archived document as a streaming reader with its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an archived document by key.
	Delete(ctx context.Context, key string) error
}
