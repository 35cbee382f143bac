package embedcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/var1ableX/langconnect-client/internal/model"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

type memStore struct {
	items   map[string]*model.EmbeddingCache
	readErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{items: map[string]*model.EmbeddingCache{}}
}

func (m *memStore) Get(_ context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	item, ok := m.items[modelName+taskType+contentHash]
	if !ok {
		return nil, false, nil
	}
	return item.Embedding, true, nil
}

func (m *memStore) Save(_ context.Context, item *model.EmbeddingCache) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.items[item.ModelName+item.TaskType+item.ContentHash] = item
	return nil
}

func TestLRUServesRepeats(t *testing.T) {
	next := &countingEmbedder{}
	e := WithLRU(next, 8, time.Minute)
	ctx := context.Background()

	first, err := e.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	first[0] = 99

	second, err := e.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{5, 1}, second)
	require.Equal(t, 1, next.calls)

	_, err = e.Embed(ctx, "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
	require.Equal(t, "counting", e.ModelName())
}

// gatedEmbedder blocks every call until release is closed.
type gatedEmbedder struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
	}
	<-g.release
	return []float32{float32(len(text))}, nil
}

func (g *gatedEmbedder) ModelName() string { return "gated" }

func TestLRUSharesConcurrentMisses(t *testing.T) {
	next := &gatedEmbedder{entered: make(chan struct{}), release: make(chan struct{})}
	e := WithLRU(next, 8, time.Minute)

	const callers = 4
	var wg sync.WaitGroup
	results := make([][]float32, callers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = e.Embed(context.Background(), "same", model.TaskRetrievalDocument)
	}()
	<-next.entered
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.Embed(context.Background(), "same", model.TaskRetrievalDocument)
		}(i)
	}
	// give the followers time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(next.release)
	wg.Wait()

	for _, r := range results {
		require.Equal(t, []float32{4}, r)
	}
	require.LessOrEqual(t, next.calls.Load(), int32(2))
	results[1][0] = 99
	require.Equal(t, float32(4), results[0][0])
}

func TestLRUDisabled(t *testing.T) {
	next := &countingEmbedder{}
	require.Same(t, next, WithLRU(next, 0, time.Minute))
	require.Same(t, next, WithLRU(next, 8, 0))
}

func TestStoreHitAndMiss(t *testing.T) {
	next := &countingEmbedder{}
	store := newMemStore()
	e := WithStore(next, store).(*storeEmbedder)
	e.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	_, err := e.Embed(ctx, "abc", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, store.items, 1)
	for _, item := range store.items {
		require.Equal(t, "counting", item.ModelName)
		require.EqualValues(t, 1700000000, item.Ctime)
		require.Len(t, item.ContentHash, 64)
	}

	got, err := e.Embed(ctx, "abc", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, []float32{3, 1}, got)
	require.Equal(t, 1, next.calls)
}

func TestStoreErrorsDegradeToProvider(t *testing.T) {
	next := &countingEmbedder{}
	store := newMemStore()
	store.readErr = errors.New("read failed")
	store.saveErr = errors.New("write failed")
	e := WithStore(next, store)

	got, err := e.Embed(context.Background(), "abc", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{3, 1}, got)
	require.Equal(t, 1, next.calls)
}

func TestStoreProviderError(t *testing.T) {
	next := &countingEmbedder{err: errors.New("quota")}
	store := newMemStore()
	_, err := WithStore(next, store).Embed(context.Background(), "abc", "RETRIEVAL_QUERY")
	require.Error(t, err)
	require.Empty(t, store.items)
}

func TestCacheKey(t *testing.T) {
	a := newCacheKey("m", "q", "text")
	b := newCacheKey("m", "d", "text")
	require.NotEqual(t, a.String(), b.String())
	require.Equal(t, "unknown", newCacheKey(" ", "q", "text").Model)
	require.Nil(t, cloneVector(nil))
}
