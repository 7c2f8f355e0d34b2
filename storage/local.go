package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Put writes the object below the base path
func (s *LocalStorage) Put(ctx context.Context, obj Object, data io.Reader) (string, error) {
	key := ObjectKey(obj)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	// Create kind/prefix directory structure
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	// Create file, replacing an earlier upload under the same key
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// Copy data to file
	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath) // Clean up partial write
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return key, nil
}

// Get opens a stored object
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	// Keys use forward slashes on every platform
	file, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes a stored object
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	// Deleting a missing object is not an error
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
