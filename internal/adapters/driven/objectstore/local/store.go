// Package local stores audio objects in a directory served by the HTTP
// adapter under /media.
package local

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.ObjectStore = (*Store)(nil)

// MediaPrefix is the URL path the directory is served under.
const MediaPrefix = "/media/"

// Store writes objects to files below a root directory.
type Store struct {
	root    string
	baseURL string
}

// NewStore creates the root directory if needed.
func NewStore(root, publicBaseURL string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("local store: directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local store: create %s: %w", root, err)
	}
	return &Store{root: root, baseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

// Root returns the directory objects are written to.
func (s *Store) Root() string {
	return s.root
}

// Put writes data to root/key via a temporary file and rename.
func (s *Store) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("local store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("local store: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("local store: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("local store: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("local store: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("local store: %w", err)
	}

	logger.Debug("local store: wrote %s (%d bytes)", path, len(data))
	return s.baseURL + MediaPrefix + (&url.URL{Path: filepath.ToSlash(key)}).EscapedPath(), nil
}

// path resolves key below root, rejecting keys that escape it.
func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("local store: invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
