package storage

import (
	"context"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Filesystem is an ObjectStore mapping keys onto a directory tree. Keys
// already use "/" separators, so they translate to paths directly.
type Filesystem struct {
	fs       afero.Fs
	pageSize int
}

// NewFilesystem creates a filesystem store rooted at dir.
func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return NewFilesystemFromFs(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// NewFilesystemFromFs wraps an existing afero filesystem, typically a
// MemMapFs in tests.
func NewFilesystemFromFs(fs afero.Fs) *Filesystem {
	return &Filesystem{fs: fs, pageSize: defaultPageSize}
}

// pathOf roots a key under "/". Keys written relative would be invisible to
// a walk from "/" on a MemMapFs, so every operation goes through this.
func pathOf(key string) string {
	return "/" + key
}

// List implements ObjectStore.
func (f *Filesystem) List(ctx context.Context, prefix, delimiter, token string) (ListPage, error) {
	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}
	var keys []string
	err := afero.Walk(f.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimPrefix(strings.ReplaceAll(p, string(os.PathSeparator), "/"), "/")
		if strings.HasPrefix(key, prefix) && key > token {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return ListPage{}, err
	}
	sort.Strings(keys)

	var next string
	if len(keys) > f.pageSize {
		keys = keys[:f.pageSize]
		next = keys[len(keys)-1]
	}
	entries, commonPrefixes := groupKeys(prefix, delimiter, keys)
	return ListPage{Entries: entries, CommonPrefixes: commonPrefixes, NextToken: next}, nil
}

// Get implements ObjectStore.
func (f *Filesystem) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, pathOf(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put implements ObjectStore.
func (f *Filesystem) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := path.Dir(pathOf(key)); dir != "/" {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(f.fs, pathOf(key), data, 0o644)
}

// Delete implements ObjectStore. Deleting an absent key succeeds.
func (f *Filesystem) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.fs.Remove(pathOf(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
