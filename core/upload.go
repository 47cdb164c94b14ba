package core

import (
	"context"
	"io"
)

// FileStorage is any service that can persist uploaded binary content
// (course thumbnails, submission attachments) and serve it back by URL.
// The domain only ever stores the returned URL string.
type FileStorage interface {
	// Save stores the content under key and returns a retrievable URL.
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Delete removes the content stored under key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
