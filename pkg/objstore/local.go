package objstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tcmclinic/telemed/pkg/types"
)

type localStore struct {
	dir string
}

func newLocalStore(dir string) (*localStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewInternalError("failed to create upload directory", err)
	}
	return &localStore{dir: dir}, nil
}

// path rejects keys escaping the upload directory.
func (s *localStore) path(key string) (string, error) {
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", types.NewValidationError("invalid storage key")
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *localStore) Put(_ context.Context, key, _ string, body io.Reader) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.NewInternalError("failed to create storage directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return types.NewInternalError("failed to create file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return types.NewInternalError("failed to write file", err)
	}
	return nil
}

func (s *localStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewNotFoundError("file not found")
	}
	return f, nil
}

func (s *localStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return types.NewInternalError("failed to delete file", err)
	}
	return nil
}
