package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxExportSize is the maximum allowed export artifact size in bytes.
	MaxExportSize = 10 * 1024 * 1024 // 10MB
)

var (
	ErrExportTooLarge      = errors.New("export exceeds maximum size")
	ErrInvalidExportPath   = errors.New("invalid export path")
	ErrExportPathTraversal = errors.New("path traversal not allowed")
)

// ExportStore persists export artifacts and returns a URL for retrieval.
type ExportStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
}

// LocalExportStore implements ExportStore on the local filesystem. Artifact
// URLs are baseURL + "/" + key; serving them is the deployment's concern.
type LocalExportStore struct {
	rootDir string
	baseURL string
}

func NewLocalExportStore(rootDir, baseURL string) (*LocalExportStore, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("export root directory is required")
	}

	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export root directory: %w", err)
	}

	return &LocalExportStore{
		rootDir: rootDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Put writes the artifact atomically (temp file + rename) and returns its URL.
func (s *LocalExportStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("export content cannot be empty")
	}
	if len(data) > MaxExportSize {
		return "", ErrExportTooLarge
	}
	if err := validateExportPath(key); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.rootDir, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing temp export: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming export: %w", err)
	}

	return s.baseURL + "/" + filepath.ToSlash(key), nil
}

func validateExportPath(path string) error {
	if path == "" {
		return ErrInvalidExportPath
	}
	if strings.Contains(path, "..") {
		return ErrExportPathTraversal
	}
	if filepath.IsAbs(path) {
		return ErrExportPathTraversal
	}
	cleaned := filepath.Clean(path)
	if strings.HasPrefix(cleaned, "..") {
		return ErrExportPathTraversal
	}
	return nil
}
