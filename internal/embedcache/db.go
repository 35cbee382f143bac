package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/var1ableX/langconnect-client/internal/ai"
	"github.com/var1ableX/langconnect-client/internal/model"
)

// Store persists embeddings across processes. repo.EmbeddingCacheRepo
// satisfies it.
type Store interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

// WithStore puts a persistent cache in front of e. A failing cache never
// fails the embedding; it only costs a provider call.
func WithStore(e ai.IEmbedder, store Store) ai.IEmbedder {
	if e == nil || store == nil {
		return e
	}
	return &storeEmbedder{next: e, store: store, now: time.Now}
}

type storeEmbedder struct {
	next  ai.IEmbedder
	store Store
	now   func() time.Time
}

func (s *storeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	logger := logutil.GetLogger(ctx)
	key := newCacheKey(s.next.ModelName(), taskType, text)
	values, ok, err := s.store.Get(ctx, key.Model, key.TaskType, key.ContentHash)
	switch {
	case err != nil:
		logger.Warn("read embedding cache failed", zap.Error(err))
	case ok:
		logger.Debug("embedding cache hit", zap.String("layer", "db"), zap.String("task_type", taskType))
		return values, nil
	}
	res, err := s.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, &model.EmbeddingCache{
		ModelName:   key.Model,
		TaskType:    key.TaskType,
		ContentHash: key.ContentHash,
		Embedding:   res,
		Ctime:       s.now().Unix(),
	}); err != nil {
		logger.Warn("write embedding cache failed", zap.Error(err))
	}
	return res, nil
}

func (s *storeEmbedder) ModelName() string {
	return s.next.ModelName()
}
