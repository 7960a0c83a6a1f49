package lesson

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// ArtifactStore persists rendered lesson pages. Put returns the address the
// page is served at.
type ArtifactStore interface {
	Put(ctx context.Context, name string, content []byte) (string, error)
}

// DirStore writes artifacts into Dir and addresses them under BaseURL.
type DirStore struct {
	Dir     string
	BaseURL string
}

// NewDirStore returns a DirStore. baseURL defaults to "/lessons" and is
// rooted with a leading slash and no trailing one.
func NewDirStore(dir, baseURL string) *DirStore {
	if baseURL == "" {
		baseURL = "/lessons"
	}
	baseURL = "/" + strings.Trim(baseURL, "/")
	return &DirStore{Dir: dir, BaseURL: baseURL}
}

// Put writes content atomically: temp file, fsync, rename. Existing files
// are never overwritten. Every failure wraps ErrStorageFailure.
func (s *DirStore) Put(ctx context.Context, name string, content []byte) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: artifact name %q", types.ErrInvalidInput, name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", storageErr("creating lessons dir", err)
	}
	dest := filepath.Join(s.Dir, name)
	if _, err := os.Stat(dest); err == nil {
		return "", storageErr("writing "+name, os.ErrExist)
	}

	tmp, err := os.CreateTemp(s.Dir, ".lesson-*.tmp")
	if err != nil {
		return "", storageErr("creating temp file", err)
	}
	tmpName := tmp.Name()
	fail := func(op string, err error) (string, error) {
		tmp.Close()
		os.Remove(tmpName)
		return "", storageErr(op, err)
	}

	if _, err := tmp.Write(content); err != nil {
		return fail("writing artifact", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing artifact", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", storageErr("closing artifact", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", storageErr("setting artifact mode", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", storageErr("renaming artifact", err)
	}
	return path.Join(s.BaseURL, name), nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorageFailure, err)
}
