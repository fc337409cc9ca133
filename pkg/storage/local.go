package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/DrSkyle/balanco/pkg/faults"
)

// LocalStore implements BlobStore for local filesystem.
type LocalStore struct {
	Root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{Root: root}
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Location(key)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return faults.Transport("local put", fmt.Errorf("failed to create directory: %w", err))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return faults.Transport("local put", err)
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.Location(key))
	if os.IsNotExist(err) {
		return nil, faults.NotFound("local get", err)
	}
	return data, err
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	root := filepath.Join(s.Root, filepath.FromSlash(prefix))

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(s.Root, path)
			keys = append(keys, filepath.ToSlash(rel))
		}
		return nil
	})

	sort.Strings(keys)
	return keys, err
}

// Location returns the full filesystem path of key.
func (s *LocalStore) Location(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

func (s *LocalStore) Describe() string { return "Local Filesystem" }

// Ping creates the root and probes it with a temporary file.
func (s *LocalStore) Ping(ctx context.Context) error {
	if err := os.MkdirAll(s.Root, 0755); err != nil {
		return faults.Configuration("local ping", err)
	}
	f, err := os.CreateTemp(s.Root, ".probe-*")
	if err != nil {
		return faults.Configuration("local ping", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
