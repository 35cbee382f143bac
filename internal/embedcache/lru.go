package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/var1ableX/langconnect-client/internal/ai"
)

// WithLRU keeps up to size recent embeddings in memory for ttl. A zero size
// or ttl disables the layer. Concurrent misses on one key share a single
// call to e, so a batch with repeated chunks embeds each text once.
func WithLRU(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next   ai.IEmbedder
	cache  *expirable.LRU[string, []float32]
	flight singleflight.Group
}

func (l *lruEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := newCacheKey(l.next.ModelName(), taskType, text).String()
	if cached, ok := l.cache.Get(key); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.String("layer", "lru"), zap.String("task_type", taskType))
		return cloneVector(cached), nil
	}
	v, err, shared := l.flight.Do(key, func() (interface{}, error) {
		values, err := l.next.Embed(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		l.cache.Add(key, cloneVector(values))
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	values := v.([]float32)
	if shared {
		return cloneVector(values), nil
	}
	return values, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}
