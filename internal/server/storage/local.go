package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/filex"
)

// LocalStore keeps images as files in a single directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStore{dir: abs}, nil
}

func (s *LocalStore) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	f, err := filex.CreateExclusive(s.dir, name)
	if err != nil {
		return err
	}

	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return err
	}

	return nil
}

func (s *LocalStore) Delete(ctx context.Context, name string) error {
	path, ok := filex.SafeJoin(s.dir, name)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) Serve(w http.ResponseWriter, r *http.Request, name string) error {
	path, ok := filex.SafeJoin(s.dir, name)
	if !ok {
		return common.ErrorNotFound
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrorNotFound
		}
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return common.ErrorNotFound
	}

	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	return nil
}
