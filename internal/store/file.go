package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yanun0323/errors"
)

// File keeps one JSON file per record under a directory. Writes go to a
// temporary file and are renamed into place, so a record is always either
// the previous or the next version, never a partial write.
//
// CompareAndSwap is guarded by an in-process mutex only; deployments with
// concurrent writer processes should use the redis backend instead.
type File struct {
	mu  sync.Mutex
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create store dir")
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(key)
	return filepath.Join(f.dir, name+".json")
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read record")
	}
	return data, true, nil
}

func (f *File) Put(_ context.Context, key string, value []byte) error {
	return f.replace(key, value)
}

func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete record")
	}
	return nil
}

func (f *File) CompareAndSwap(ctx context.Context, key string, expect, value []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok, err := f.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if expect == nil {
		if ok {
			return false, nil
		}
	} else if !ok || !bytes.Equal(current, expect) {
		return false, nil
	}
	if err := f.replace(key, value); err != nil {
		return false, err
	}
	return true, nil
}

func (f *File) replace(key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp record")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temp record")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp record")
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "replace record")
	}
	return nil
}
