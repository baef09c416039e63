package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vovakirdan/wingo/internal/meta"
	"github.com/vovakirdan/wingo/internal/registry"
)

const (
	metaFile = "meta.json"
	runFile  = "run.json"
)

func init() {
	registry.Register("file", func(path string) (registry.Store, error) {
		return OpenFile(path)
	})
}

// File keeps meta.json and run.json in a directory.
type File struct {
	dir string
}

// OpenFile returns a store rooted at dir, creating it if needed.
func OpenFile(dir string) (*File, error) {
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (f *File) Dir() string { return f.dir }

// LoadMeta decodes meta.json, returning nil if it does not exist.
func (f *File) LoadMeta() (*meta.State, error) {
	data, err := f.read(metaFile)
	if err != nil || data == nil {
		return nil, err
	}
	var m meta.State
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("storage: cannot decode %s: %w", metaFile, err)
	}
	return &m, nil
}

// SaveMeta writes meta.json.
func (f *File) SaveMeta(m *meta.State) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: cannot encode meta: %w", err)
	}
	return f.write(metaFile, data)
}

// LoadRun reads run.json, returning nil if it does not exist.
func (f *File) LoadRun() ([]byte, error) {
	return f.read(runFile)
}

// SaveRun writes run.json.
func (f *File) SaveRun(snapshot []byte) error {
	return f.write(runFile, snapshot)
}

// DeleteRun removes run.json. A missing file is not an error.
func (f *File) DeleteRun() error {
	err := os.Remove(filepath.Join(f.dir, runFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: cannot delete run: %w", err)
	}
	return nil
}

// Close is a no-op; every write is already on disk.
func (f *File) Close() error { return nil }

func (f *File) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot read %s: %w", name, err)
	}
	return data, nil
}

// write replaces name atomically through a temp file in the same directory.
func (f *File) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: cannot write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: cannot write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: cannot write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, name)); err != nil {
		return fmt.Errorf("storage: cannot write %s: %w", name, err)
	}
	return nil
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "" && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return path, nil
}

var _ registry.Store = (*File)(nil)
