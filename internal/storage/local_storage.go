package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

type localStorage struct {
	dir string
}

// NewLocalStorage reads FITS files directly inside dir. Subdirectories are
// not visited.
func NewLocalStorage(dir string) (Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &localStorage{dir: dir}, nil
}

func (s *localStorage) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !IsFITS(e.Name()) {
			continue
		}
		// Symlinks count when they resolve to a regular file.
		info, err := os.Stat(filepath.Join(s.dir, e.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *localStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	return os.Open(filepath.Join(s.dir, name))
}

func (s *localStorage) Location() string {
	return s.dir
}
