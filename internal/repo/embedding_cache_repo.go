package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/var1ableX/langconnect-client/internal/model"
	"github.com/var1ableX/langconnect-client/internal/pkg/dbutil"
)

const embeddingCacheTable = "embedding_cache"

// EmbeddingCacheRepo stores provider vectors keyed by model, task type and
// content hash. Rows are shared by every owner.
type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func cacheKeyWhere(modelName, taskType, contentHash string) map[string]interface{} {
	return map[string]interface{}{
		"model_name":   modelName,
		"task_type":    taskType,
		"content_hash": contentHash,
		"_limit":       []uint{0, 1},
	}
}

// Get reports ok=false on a miss; only storage failures return an error.
func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	sqlStr, args, err := builder.BuildSelect(embeddingCacheTable, cacheKeyWhere(modelName, taskType, contentHash), []string{"embedding"})
	if err != nil {
		return nil, false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var vec pgvector.Vector
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&vec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, dbutil.Wrap(err)
	}
	return vec.Slice(), true, nil
}

// Save overwrites the vector and refreshes ctime when the key exists, so a
// hot entry survives the age-based cleanup.
func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.EmbeddingCache) error {
	if item == nil || len(item.Embedding) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (model_name, task_type, content_hash)
		DO UPDATE SET embedding = EXCLUDED.embedding, ctime = EXCLUDED.ctime`,
		item.ModelName, item.TaskType, item.ContentHash, pgvector.NewVector(item.Embedding), item.Ctime,
	)
	return dbutil.Wrap(err)
}

// DeleteBefore drops rows written before cutoff (unix seconds).
func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete(embeddingCacheTable, map[string]interface{}{
		"ctime <": cutoff,
	})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, dbutil.Wrap(err)
	}
	return res.RowsAffected()
}
