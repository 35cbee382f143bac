// Package filestore reads and archives raw upload files, either on local
// disk or in an S3-compatible bucket.
package filestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/var1ableX/langconnect-client/internal/config"
	"github.com/var1ableX/langconnect-client/internal/pkg/registry"
)

// Store keeps raw files under slash-separated keys.
type Store interface {
	Save(ctx context.Context, key string, r io.ReadSeeker, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

var backends = registry.New[Store]("file store")

// Register makes a backend available under file_store.type.
func Register(name string, factory registry.Factory[Store]) {
	backends.Register(name, factory)
}

func New(cfg config.FileStoreConfig) (Store, error) {
	return backends.Build(cfg.Type, cfg.Data)
}

// ArchiveKey is where the original of an ingested file is kept.
func ArchiveKey(collectionID, fileID, name string) string {
	return path.Join(collectionID, fileID, path.Base(strings.ReplaceAll(name, "\\", "/")))
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("file key is required")
	}
	return key, nil
}
