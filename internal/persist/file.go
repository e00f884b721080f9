package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores one JSON file per key under a directory. Writes go to
// a temp file in the same directory and are renamed into place, so a crash
// mid-write leaves the previous value intact.
type FileBackend struct {
	dir string
}

// NewFileBackend returns a backend rooted at dir. The directory is created
// on the first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Dir returns the root directory.
func (f *FileBackend) Dir() string { return f.dir }

func (f *FileBackend) path(key Key) string {
	// Key.String escapes the grid id; ':' is swapped out for filesystems
	// that reject it.
	name := strings.ReplaceAll(key.String(), ":", "_")
	return filepath.Join(f.dir, name+".json")
}

func (f *FileBackend) Get(_ context.Context, key Key) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (f *FileBackend) Put(_ context.Context, key Key, value []byte) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Delete(_ context.Context, key Key) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Keys(_ context.Context) ([]Key, error) {
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var keys []Key
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		// Grid ids may contain '_', the prefix and slot names never do.
		first := strings.IndexByte(name, '_')
		last := strings.LastIndexByte(name, '_')
		if first < 0 || first == last {
			continue
		}
		raw := name[:first] + ":" + name[first+1:last] + ":" + name[last+1:]
		k, err := ParseKey(raw)
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}
