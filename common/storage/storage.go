package storage

import (
	"context"
)

// StorageService is the object storage the batch archive writes to
type StorageService interface {
	// Upload stores content under objectName and returns the object name
	Upload(ctx context.Context, bucket, objectName string, content []byte, contentType string) (string, error)

	Download(ctx context.Context, bucket, objectName string) ([]byte, error)

	// GetSignedURL returns a GET URL valid for expires seconds
	GetSignedURL(ctx context.Context, bucket, objectName string, expires int64) (string, error)
}
