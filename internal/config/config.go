package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database       DatabaseConfig       `json:"database"`
	LogConfig      logger.LogConfig     `json:"log_config"`
	Embedding      EmbeddingConfig      `json:"embedding"`
	EmbeddingCache EmbeddingCacheConfig `json:"embedding_cache"`
	Search         SearchConfig         `json:"search"`
	Processor      ProcessorConfig      `json:"processor"`
	FileStore      FileStoreConfig      `json:"file_store"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
	// MaxOpenConns bounds the pool; zero leaves database/sql's default.
	MaxOpenConns    int `json:"max_open_conns"`
	MaxIdleConns    int `json:"max_idle_conns"`
	ConnMaxLifetime int `json:"conn_max_lifetime"` // seconds
}

type EmbeddingConfig struct {
	Providers []EmbeddingProviderConfig `json:"providers"`
	Timeout   int                       `json:"timeout"`
}

type EmbeddingProviderConfig struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Model string      `json:"model"`
	Data  interface{} `json:"data"`
}

type EmbeddingCacheConfig struct {
	LRUSize       int    `json:"lru_size"`
	LRUTTLSeconds int    `json:"lru_ttl_seconds"`
	DBCache       bool   `json:"db_cache"`
	MaxAgeDays    int    `json:"max_age_days"`
	CleanupSpec   string `json:"cleanup_spec"`
}

type SearchConfig struct {
	SemanticWeight  float64 `json:"semantic_weight"`
	KeywordWeight   float64 `json:"keyword_weight"`
	FilterOverfetch int     `json:"filter_overfetch"`
	HybridOverfetch int     `json:"hybrid_overfetch"`
	DefaultLimit    int     `json:"default_limit"`
	// MaxLimit is the largest limit a search may ask for.
	MaxLimit int `json:"max_limit"`
}

type ProcessorConfig struct {
	ChunkSize    int `json:"chunk_size"`
	// ChunkOverlap is a pointer so that an explicit 0 survives defaulting.
	ChunkOverlap *int `json:"chunk_overlap"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if c.Database.DSN == "" {
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if len(c.Embedding.Providers) == 0 {
		return fmt.Errorf("embedding.providers is required")
	}
	for i, p := range c.Embedding.Providers {
		if strings.TrimSpace(p.Type) == "" {
			return fmt.Errorf("embedding.providers[%d].type is required", i)
		}
		if strings.TrimSpace(p.Model) == "" {
			return fmt.Errorf("embedding.providers[%d].model is required", i)
		}
		if p.Name == "" {
			c.Embedding.Providers[i].Name = p.Type
		}
	}
	if c.Embedding.Timeout <= 0 {
		c.Embedding.Timeout = 30
	}
	if c.EmbeddingCache.LRUSize < 0 {
		return fmt.Errorf("embedding_cache.lru_size must not be negative")
	}
	if c.EmbeddingCache.LRUTTLSeconds <= 0 {
		c.EmbeddingCache.LRUTTLSeconds = 7200
	}
	if c.EmbeddingCache.MaxAgeDays <= 0 {
		c.EmbeddingCache.MaxAgeDays = 30
	}
	if c.EmbeddingCache.CleanupSpec == "" {
		c.EmbeddingCache.CleanupSpec = "30 3 * * *"
	}
	if err := c.Search.normalize(); err != nil {
		return err
	}
	if c.Processor.ChunkSize == 0 {
		c.Processor.ChunkSize = 1000
	}
	if c.Processor.ChunkOverlap == nil {
		overlap := 200
		if overlap >= c.Processor.ChunkSize {
			overlap = c.Processor.ChunkSize / 5
		}
		c.Processor.ChunkOverlap = &overlap
	}
	if c.Processor.ChunkSize < 0 || *c.Processor.ChunkOverlap < 0 || *c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		return fmt.Errorf("processor.chunk_overlap must be in [0, chunk_size)")
	}
	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
	}
	switch strings.ToLower(c.FileStore.Type) {
	case "local", "s3":
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	return nil
}

// DefaultSearchConfig carries the stock 70/30 hybrid weighting.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		SemanticWeight:  0.7,
		KeywordWeight:   0.3,
		FilterOverfetch: 3,
		HybridOverfetch: 2,
		DefaultLimit:    10,
		MaxLimit:        1000,
	}
}

func (s *SearchConfig) normalize() error {
	def := DefaultSearchConfig()
	if s.SemanticWeight == 0 && s.KeywordWeight == 0 {
		s.SemanticWeight = def.SemanticWeight
		s.KeywordWeight = def.KeywordWeight
	}
	if s.SemanticWeight < 0 || s.KeywordWeight < 0 {
		return fmt.Errorf("search weights must not be negative")
	}
	if s.FilterOverfetch <= 0 {
		s.FilterOverfetch = def.FilterOverfetch
	}
	if s.HybridOverfetch <= 0 {
		s.HybridOverfetch = def.HybridOverfetch
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = def.DefaultLimit
	}
	if s.MaxLimit <= 0 {
		s.MaxLimit = def.MaxLimit
	}
	if s.DefaultLimit > s.MaxLimit {
		return fmt.Errorf("search.default_limit must not exceed search.max_limit")
	}
	return nil
}
