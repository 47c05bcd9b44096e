// Package storage keeps the raw spreadsheet uploaded for each session until it
// is normalized and the retention sweeper removes it.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrFileNotFound is returned when a session has no uploaded file.
	ErrFileNotFound = errors.New("uploaded file not found")

	// ErrInvalidSession is returned for session ids that are not safe path components.
	ErrInvalidSession = errors.New("invalid session id")
)

// FileInfo contains metadata about a stored upload
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	SessionID   string    `json:"session_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // relative to the session directory
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the upload storage operations. Each session holds at most
// one file; uploading again replaces it.
type Storage interface {
	// Upload stores the file for a session and returns its metadata
	Upload(ctx context.Context, sessionID, filename, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for the session's file
	Open(ctx context.Context, sessionID string) (io.ReadCloser, *FileInfo, error)

	// GetInfo returns metadata for the session's file without opening it
	GetInfo(ctx context.Context, sessionID string) (*FileInfo, error)

	// Delete removes the session's file; deleting a missing file is not an error
	Delete(ctx context.Context, sessionID string) error

	// List returns metadata for every stored upload
	List(ctx context.Context) ([]*FileInfo, error)
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a new Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, errors.New("unsupported storage type: " + string(cfg.Type))
	}
}

// ValidSessionID reports whether id can be used as a storage key.
func ValidSessionID(id string) bool {
	if id == "" || id == "." || id == ".." || len(id) > 128 {
		return false
	}
	return !strings.ContainsAny(id, `/\:*?"<>|`) && !strings.Contains(id, "..")
}
