// Package storage defines the common interface for the storage backends the export
// path writes to. It abstracts object storage so exported files can land on the local
// file system in development and on a bucket-like backend in production through the
// same API.
package storage

import (
	"context"
	"io"
)

// Connection represents a generic object-storage connection.
type Connection interface {
	// Upload writes data under the given object name. The object name may contain
	// path separators; intermediate directories (or key prefixes) are created as
	// needed. contentType is the MIME type of the data.
	Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error
	// Download opens the named object for reading. The returned ReadCloser must be
	// closed by the caller.
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for each object name under the given prefix, allowing
	// large listings to be processed without loading them all into memory.
	ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error
	// DeleteObject removes the named object.
	DeleteObject(ctx context.Context, objectName string) error
	// Close releases any resources held by the connection.
	Close() error
	// Name returns the connection's configured name.
	Name() string
}
