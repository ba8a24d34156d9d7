package storage

import (
	"context"
	"fmt"
	"io"
)

// noopStorage is used when no archive backend is configured: uploaded files
// stay transient and every archive operation succeeds without doing anything.
type noopStorage struct{}

// NewNoop returns a Storage that archives nothing.
func NewNoop() Storage { return noopStorage{} }

func (noopStorage) Put(_ context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	return ObjectInfo{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (noopStorage) Get(context.Context, string) (io.ReadCloser, ObjectInfo, error) {
	return nil, ObjectInfo{}, fmt.Errorf("archive disabled")
}

func (noopStorage) Delete(context.Context, string) error { return nil }
