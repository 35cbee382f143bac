package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	p := writeConfig(t, `{
		"database": {"host": "localhost", "user": "u", "dbname": "d"},
		"embedding": {"providers": [{"type": "gemini", "model": "text-embedding-004"}]}
	}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "disable", cfg.Database.SSLMode)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "gemini", cfg.Embedding.Providers[0].Name)
	require.Equal(t, 30, cfg.Embedding.Timeout)
	require.Equal(t, DefaultSearchConfig(), cfg.Search)
	require.Equal(t, 1000, cfg.Processor.ChunkSize)
	require.Equal(t, 200, *cfg.Processor.ChunkOverlap)
	require.Equal(t, "local", cfg.FileStore.Type)
	require.Equal(t, "30 3 * * *", cfg.EmbeddingCache.CleanupSpec)
}

func TestLoadKeepsExplicitZeroOverlap(t *testing.T) {
	p := writeConfig(t, `{
		"database": {"dsn": "postgres://x"},
		"embedding": {"providers": [{"type": "gemini", "model": "m"}]},
		"processor": {"chunk_overlap": 0}
	}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, 0, *cfg.Processor.ChunkOverlap)

	p = writeConfig(t, `{
		"database": {"dsn": "postgres://x"},
		"embedding": {"providers": [{"type": "gemini", "model": "m"}]},
		"processor": {"chunk_size": 100}
	}`)
	cfg, err = Load(p)
	require.NoError(t, err)
	require.Equal(t, 20, *cfg.Processor.ChunkOverlap)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no database":  `{"embedding": {"providers": [{"type": "gemini", "model": "m"}]}}`,
		"no providers": `{"database": {"dsn": "postgres://x"}}`,
		"no model":     `{"database": {"dsn": "postgres://x"}, "embedding": {"providers": [{"type": "gemini"}]}}`,
		"overlap":      `{"database": {"dsn": "postgres://x"}, "embedding": {"providers": [{"type": "gemini", "model": "m"}]}, "processor": {"chunk_size": 100, "chunk_overlap": 100}}`,
		"weights":      `{"database": {"dsn": "postgres://x"}, "embedding": {"providers": [{"type": "gemini", "model": "m"}]}, "search": {"semantic_weight": -1}}`,
		"limits":       `{"database": {"dsn": "postgres://x"}, "embedding": {"providers": [{"type": "gemini", "model": "m"}]}, "search": {"default_limit": 50, "max_limit": 20}}`,
		"file store":   `{"database": {"dsn": "postgres://x"}, "embedding": {"providers": [{"type": "gemini", "model": "m"}]}, "file_store": {"type": "ftp"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
