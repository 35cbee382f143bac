package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
	"github.com/var1ableX/langconnect-client/internal/pkg/registry"
)

type localConfig struct {
	Dir string `json:"dir"`
}

// localStore keeps files under one directory, mirroring the key layout.
type localStore struct {
	root string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	cfg := &localConfig{}
	if err := registry.Decode(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local file store needs dir")
	}
	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve local file store dir: %w", err)
	}
	return &localStore{root: root}, nil
}

func (s *localStore) resolve(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", appErr.Invalidf("%v", err)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Save writes to a temp file next to the target and renames it into place,
// so readers never see a partial file.
func (s *localStore) Save(_ context.Context, key string, r io.ReadSeeker, _ int64) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return appErr.Unavailable(err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return appErr.Unavailable(err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return appErr.Unavailable(err)
	}
	if err := tmp.Close(); err != nil {
		return appErr.Unavailable(err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return appErr.Unavailable(err)
	}
	return nil
}

func (s *localStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, appErr.NotFoundf("file %s", key)
	}
	if err != nil {
		return nil, appErr.Unavailable(err)
	}
	return f, nil
}
