package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/var1ableX/langconnect-client/internal/config"
)

func TestOpenFileStore(t *testing.T) {
	store, err := openFileStore(config.FileStoreConfig{Type: "local"})
	require.NoError(t, err)
	require.Nil(t, store)

	store, err = openFileStore(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	require.NotNil(t, store)

	_, err = openFileStore(config.FileStoreConfig{Type: "ftp", Data: map[string]interface{}{}})
	require.Error(t, err)
}
