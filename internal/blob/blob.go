// Package blob stores uploaded media (consultation recordings, scanned
// reference documents) and hands back URLs the dashboard can serve.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves a binary blob and returns a public URL for it.
type Store interface {
	Upload(data []byte, extension string) (string, error)
}

// LocalStore keeps blobs under <dataDir>/media and returns /media/ URLs,
// served by the dashboard's file server.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the media directory under dataDir.
func NewLocalStore(dataDir string) (*LocalStore, error) {
	dir := filepath.Join(dataDir, "media")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory blobs are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Upload writes the blob under a random name and returns its URL path.
func (s *LocalStore) Upload(data []byte, extension string) (string, error) {
	extension = strings.TrimPrefix(extension, ".")
	if extension == "" {
		extension = "bin"
	}
	name := uuid.NewString() + "." + extension

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	return "/media/" + name, nil
}
