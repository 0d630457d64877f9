package blob

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// FSBucket stores objects as files under a root directory. Used for local
// runs and tests; deployed environments use the GCS bucket.
type FSBucket struct {
	root string
}

// NewFS creates a filesystem bucket rooted at dir, creating it if needed.
func NewFS(dir string) (*FSBucket, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "blob: create root %s", dir)
	}
	return &FSBucket{root: dir}, nil
}

func (b *FSBucket) List(_ context.Context, prefix string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			paths = append(paths, key)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "blob: list %s", prefix)
	}
	return paths, nil
}

func (b *FSBucket) Upload(_ context.Context, path string, data []byte) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return eris.Wrapf(err, "blob: mkdir for %s", path)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return eris.Wrapf(err, "blob: write %s", path)
	}
	return nil
}

func (b *FSBucket) Download(_ context.Context, path string) ([]byte, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{Path: path}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "blob: read %s", path)
	}
	return data, nil
}

// resolve maps a slash key onto the root, rejecting traversal outside it.
func (b *FSBucket) resolve(path string) (string, error) {
	full := filepath.Join(b.root, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(b.root)+string(os.PathSeparator)) {
		return "", eris.Errorf("blob: path escapes bucket root: %s", path)
	}
	return full, nil
}
