// Package local provides a local file system implementation of the storage
// connection interface.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/storage"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

// localAdapter implements storage.Connection over a base directory.
type localAdapter struct {
	baseDir string
	name    string
}

var _ storage.Connection = (*localAdapter)(nil)

// NewLocalAdapter creates a storage connection rooted at baseDir,
// creating the directory if it does not exist yet.
func NewLocalAdapter(baseDir, name string) (storage.Connection, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local storage adapter %q: base directory must be specified", name)
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(baseDir, 0755); err != nil {
				return nil, fmt.Errorf("local storage adapter %q: failed to create base directory %q: %w", name, baseDir, err)
			}
		} else {
			return nil, fmt.Errorf("local storage adapter %q: failed to stat base directory %q: %w", name, baseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local storage adapter %q: %q is not a directory", name, baseDir)
	}
	return &localAdapter{baseDir: baseDir, name: name}, nil
}

// Close does nothing for the local file system adapter as it holds no special resources.
func (a *localAdapter) Close() error {
	logger.Debugf("local storage adapter %q closed", a.name)
	return nil
}

// Name returns the name of this connection.
func (a *localAdapter) Name() string {
	return a.name
}

// Upload writes data to the object path below the base directory,
// creating intermediate directories as needed.
func (a *localAdapter) Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error {
	fullPath, err := a.resolvePath(objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", fullPath, err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %q: %w", fullPath, err)
	}
	defer file.Close()
	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data to %q: %w", fullPath, err)
	}
	logger.Debugf("uploaded object %q via local adapter %q", objectName, a.name)
	return nil
}

// Download opens the named object for reading.
func (a *localAdapter) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(objectName)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", fullPath, err)
	}
	return file, nil
}

// ListObjects walks the prefix directory and calls fn with each file's object name
// relative to the base directory.
func (a *localAdapter) ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error {
	root, err := a.resolvePath(prefix)
	if err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(a.baseDir, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
}

// DeleteObject removes the named object.
func (a *localAdapter) DeleteObject(ctx context.Context, objectName string) error {
	fullPath, err := a.resolvePath(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete %q: %w", fullPath, err)
	}
	return nil
}

// resolvePath joins the object name below the base directory and rejects path
// traversal outside of it.
func (a *localAdapter) resolvePath(objectName string) (string, error) {
	fullPath := filepath.Join(a.baseDir, filepath.FromSlash(objectName))
	base, err := filepath.Abs(a.baseDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if abs != base && !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("object name %q escapes the base directory", objectName)
	}
	return fullPath, nil
}
