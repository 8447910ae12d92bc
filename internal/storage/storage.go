// Package storage provides object storage for processed slide images.
package storage

import (
	"context"
	"fmt"
	"io"
)

// ObjectStore is the minimal surface the application needs from a binary
// object store: put bytes, get a public URL back, remove later.
type ObjectStore interface {
	// Upload stores the object under key and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Remove deletes the object. Removing a missing object is not an error.
	Remove(ctx context.Context, key string) error
}

// ImageKey builds the canonical object key for a processed image.
func ImageKey(userID, imageID string) string {
	return fmt.Sprintf("processed-images/%s/%s.jpg", userID, imageID)
}
