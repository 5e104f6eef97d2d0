package storage

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// LocalStorage persists uploaded files on disk under a base directory and
// exposes them through a public URL prefix.
type LocalStorage struct {
	baseDir      string
	publicPrefix string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, publicPrefix string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, publicPrefix: publicPrefix}, nil
}

// SaveUpload streams an uploaded file to disk under a collision-resistant
// name derived from the sanitised original filename. It returns the stored
// name and the public URL referencing it.
func (s *LocalStorage) SaveUpload(originalName string, r io.Reader) (string, string, error) {
	stored := fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), sanitize(originalName))
	path := filepath.Join(s.baseDir, stored)

	file, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}
	return stored, s.publicPrefix + "/" + stored, nil
}

// Open returns a read-only handle for a stored file.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	file, err := os.Open(filepath.Join(s.baseDir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(name string) error {
	if err := os.Remove(filepath.Join(s.baseDir, filepath.Base(name))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(name string) string {
	return filepath.Join(s.baseDir, filepath.Base(name))
}

func sanitize(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "file"
	}
	return unsafeChars.ReplaceAllString(base, "_")
}
