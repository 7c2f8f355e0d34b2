// Package storage keeps the raw bytes of uploaded tender documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"tendercheck-backend/models"

	"github.com/google/uuid"
)

var (
	// ErrObjectNotFound is returned when a key does not exist
	ErrObjectNotFound = errors.New("stored object not found")
	// ErrInvalidKey is returned for keys that escape the storage root
	ErrInvalidKey = errors.New("invalid storage key")
)

// Object describes a document to store
type Object struct {
	Kind        models.DocumentKind
	ID          uuid.UUID
	Filename    string
	ContentType string
}

// Storage interface for document blob operations
type Storage interface {
	// Put stores the object and returns its key
	Put(ctx context.Context, obj Object, data io.Reader) (string, error)

	// Get opens the object stored under key
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		localPath := cfg.LocalPath
		if localPath == "" {
			localPath = "./storage/files"
		}
		return NewLocalStorage(localPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("an S3 bucket is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// ObjectKey builds the key for obj: <kind>/<id prefix>/<id>_<safe filename>
func ObjectKey(obj Object) string {
	kind := string(obj.Kind)
	if kind == "" {
		kind = "misc"
	}
	id := obj.ID.String()
	return path.Join(kind, id[:2], id+"_"+safeName(obj.Filename))
}

// safeName reduces a client supplied filename to a single path element
func safeName(filename string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ' ' || r == 0:
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, filename)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		return "document"
	}
	return name
}

// validKey rejects keys that are absolute or climb out of the root
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
