package ports

import (
	"context"
	"io"
)

// ObjectStorage stores binary objects and returns a reference the client can fetch.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error)
}
