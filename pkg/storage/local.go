package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaFile = ".meta.json"

// LocalStorage implements Storage using the local filesystem. Each session
// gets a directory holding the upload and its metadata.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Upload stores a file for the session, replacing any earlier upload
func (s *LocalStorage) Upload(ctx context.Context, sessionID, filename, contentType string, r io.Reader) (*FileInfo, error) {
	if !ValidSessionID(sessionID) {
		return nil, ErrInvalidSession
	}
	if err := s.Delete(ctx, sessionID); err != nil {
		return nil, err
	}

	sessionDir := filepath.Join(s.basePath, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	fileID := uuid.New()
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	filePath := filepath.Join(sessionDir, storedFilename)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		SessionID:   sessionID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        storedFilename,
		CreatedAt:   s.now(),
	}

	if err := s.saveMetadata(info); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	return info, nil
}

// Open returns a reader for the session's file
func (s *LocalStorage) Open(ctx context.Context, sessionID string) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, sessionID, info.Path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// GetInfo returns metadata for the session's file
func (s *LocalStorage) GetInfo(ctx context.Context, sessionID string) (*FileInfo, error) {
	if !ValidSessionID(sessionID) {
		return nil, ErrInvalidSession
	}

	data, err := os.ReadFile(filepath.Join(s.basePath, sessionID, metaFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

// Delete removes the session directory
func (s *LocalStorage) Delete(ctx context.Context, sessionID string) error {
	if !ValidSessionID(sessionID) {
		return ErrInvalidSession
	}
	if err := os.RemoveAll(filepath.Join(s.basePath, sessionID)); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// List returns metadata for every session with an upload
func (s *LocalStorage) List(ctx context.Context) ([]*FileInfo, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := s.GetInfo(ctx, entry.Name())
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	return files, nil
}

func (s *LocalStorage) saveMetadata(info *FileInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	metaPath := filepath.Join(s.basePath, info.SessionID, metaFile)
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	replacer := strings.NewReplacer(
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	if name = replacer.Replace(name); name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}
