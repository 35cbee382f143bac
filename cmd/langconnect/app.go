package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/var1ableX/langconnect-client/internal/ai"
	"github.com/var1ableX/langconnect-client/internal/config"
	"github.com/var1ableX/langconnect-client/internal/db"
	"github.com/var1ableX/langconnect-client/internal/embedcache"
	"github.com/var1ableX/langconnect-client/internal/filestore"
	"github.com/var1ableX/langconnect-client/internal/processor"
	"github.com/var1ableX/langconnect-client/internal/repo"
	"github.com/var1ableX/langconnect-client/internal/service"
	"github.com/var1ableX/langconnect-client/internal/vectorstore"
)

type app struct {
	cfg         *config.Config
	db          *sql.DB
	cacheRepo   *repo.EmbeddingCacheRepo
	files       filestore.Store
	collections *service.CollectionService
	documents   *service.DocumentService
	search      *service.SearchService
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Debug("config loaded", zap.String("config", opts.configPath))
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return conn, nil
}

func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(cfg.Embedding.Providers))
	for _, p := range cfg.Embedding.Providers {
		provider, err := ai.NewEmbedProvider(p.Type, p.Data)
		if err != nil {
			return nil, fmt.Errorf("init embedding provider %s: %w", p.Name, err)
		}
		entries = append(entries, ai.EmbedderEntry{Name: p.Name, Embedder: ai.NewEmbedder(provider, p.Model)})
	}
	embedder := ai.NewGroupEmbedder(entries)
	if embedder == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}
	embedder = ai.WithTimeout(embedder, time.Duration(cfg.Embedding.Timeout)*time.Second)
	if cfg.EmbeddingCache.DBCache {
		embedder = embedcache.WithStore(embedder, cacheRepo)
	}
	embedder = embedcache.WithLRU(embedder, cfg.EmbeddingCache.LRUSize, time.Duration(cfg.EmbeddingCache.LRUTTLSeconds)*time.Second)
	return embedder, nil
}

// newApp wires config, database, embedder and services for one command.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	conn, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: conn, cacheRepo: repo.NewEmbeddingCacheRepo(conn)}
	embedder, err := buildEmbedder(cfg, a.cacheRepo)
	if err != nil {
		a.Close()
		return nil, err
	}
	files, err := openFileStore(cfg.FileStore)
	switch {
	case err != nil:
		logutil.GetLogger(ctx).Warn("file store disabled", zap.Error(err))
	case files == nil:
		logutil.GetLogger(ctx).Debug("no file store configured")
	}
	a.files = files

	collectionRepo := repo.NewCollectionRepo(conn)
	documentRepo := repo.NewDocumentRepo(conn)
	vectors := vectorstore.NewPGVectorStore(conn, embedder)
	proc := processor.New(cfg.Processor.ChunkSize, *cfg.Processor.ChunkOverlap)

	a.collections = service.NewCollectionService(collectionRepo, vectors)
	a.documents = service.NewDocumentService(collectionRepo, documentRepo, vectors, proc)
	a.search = service.NewSearchService(collectionRepo, documentRepo, vectors, cfg.Search)
	return a, nil
}

// openFileStore returns nil when the config names no store settings.
func openFileStore(cfg config.FileStoreConfig) (filestore.Store, error) {
	if cfg.Data == nil {
		return nil, nil
	}
	return filestore.New(cfg)
}

func requireUser(opts *rootOptions) error {
	if opts.ownerID == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}
