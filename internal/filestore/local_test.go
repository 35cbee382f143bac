package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/var1ableX/langconnect-client/internal/config"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

func TestLocalSaveOpen(t *testing.T) {
	s, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	ctx := context.Background()

	key := ArchiveKey("c1", "f1", "dir\\report.pdf")
	require.Equal(t, "c1/f1/report.pdf", key)

	data := []byte("payload")
	require.NoError(t, s.Save(ctx, key, bytes.NewReader(data), int64(len(data))))

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestNewValidation(t *testing.T) {
	_, err := New(config.FileStoreConfig{})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{}})
	require.Error(t, err)
}

func TestCleanKeyStaysInRoot(t *testing.T) {
	key, err := cleanKey("../../etc/passwd")
	require.NoError(t, err)
	require.Equal(t, "etc/passwd", key)
	_, err = cleanKey("/")
	require.Error(t, err)
}

func TestEndpointURL(t *testing.T) {
	require.Equal(t, "https://s3.example.com", endpointURL("s3.example.com", true))
	require.Equal(t, "http://minio:9000", endpointURL("minio:9000", false))
	require.Equal(t, "http://minio:9000", endpointURL("http://minio:9000", true))
}

func TestLocalOpenMissing(t *testing.T) {
	s, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	_, err = s.Open(context.Background(), "c1/f1/missing.pdf")
	require.True(t, appErr.IsNotFound(err))
}
