package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/var1ableX/langconnect-client/internal/config"
	"github.com/var1ableX/langconnect-client/internal/envelope"
	"github.com/var1ableX/langconnect-client/internal/model"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
	"github.com/var1ableX/langconnect-client/internal/repo"
)

// memDB backs the in-memory repositories and vector store used by the
// service tests. It follows the Postgres implementations: owner checks go
// through the collection, handles are unique, deletes cascade.
type memDB struct {
	mu          sync.Mutex
	collections map[string]*memCollection
	chunks      []*memChunk
	seq         int

	createErr   error
	semanticK   []int
	keywordK    []int
	semanticFix []model.SearchResult
	keywordFix  []model.SearchResult
}

type memCollection struct {
	id     string
	handle string
	env    envelope.Envelope
}

type memChunk struct {
	id           string
	collectionID string
	content      string
	metadata     map[string]interface{}
}

func newMemDB() *memDB {
	return &memDB{collections: map[string]*memCollection{}}
}

func (m *memDB) details(c *memCollection) *model.CollectionDetails {
	return &model.CollectionDetails{
		Collection: model.Collection{
			ID:       c.id,
			Name:     c.env.Name,
			Metadata: envelope.UserMetadata(c.env.Metadata),
		},
		OwnerID:       c.env.OwnerID,
		StorageHandle: c.handle,
	}
}

func (m *memDB) owned(ownerID, id string) (*memCollection, bool) {
	c, ok := m.collections[id]
	if !ok || c.env.OwnerID != ownerID {
		return nil, false
	}
	return c, true
}

func (m *memDB) inScope(scope repo.Scope, ch *memChunk) bool {
	if ch.collectionID != scope.CollectionID {
		return false
	}
	_, ok := m.owned(scope.OwnerID, scope.CollectionID)
	return ok
}

type memCollections struct{ *memDB }

func (m memCollections) List(_ context.Context, ownerID string) ([]model.CollectionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.CollectionSummary, 0)
	for _, c := range m.collections {
		if c.env.OwnerID != ownerID {
			continue
		}
		files := map[string]struct{}{}
		var chunks int64
		for _, ch := range m.chunks {
			if ch.collectionID != c.id {
				continue
			}
			chunks++
			if f, ok := ch.metadata[model.MetaFileID].(string); ok {
				files[f] = struct{}{}
			}
		}
		out = append(out, model.CollectionSummary{
			Collection:    m.details(c).Collection,
			DocumentCount: int64(len(files)),
			ChunkCount:    chunks,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m memCollections) Get(_ context.Context, ownerID, id string) (*model.CollectionDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.owned(ownerID, id)
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return m.details(c), nil
}

func (m memCollections) GetByHandle(_ context.Context, ownerID, handle string) (*model.CollectionDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.collections {
		if c.handle == handle && c.env.OwnerID == ownerID {
			return m.details(c), nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m memCollections) ReplaceEnvelope(_ context.Context, id string, env envelope.Envelope) (*model.CollectionDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.owned(env.OwnerID, id)
	if !ok {
		return nil, appErr.ErrNotFound
	}
	c.env = envelope.Envelope{OwnerID: env.OwnerID, Name: env.Name, Metadata: envelope.UserMetadata(env.Metadata)}
	return m.details(c), nil
}

func (m memCollections) ReplaceMetadataKeepName(_ context.Context, ownerID, id string, metadata map[string]interface{}) (*model.CollectionDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.owned(ownerID, id)
	if !ok {
		return nil, appErr.ErrNotFound
	}
	c.env.Metadata = envelope.UserMetadata(metadata)
	return m.details(c), nil
}

func (m memCollections) Rename(_ context.Context, ownerID, id, name string) (*model.CollectionDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.owned(ownerID, id)
	if !ok {
		return nil, appErr.ErrNotFound
	}
	c.env.Name = name
	return m.details(c), nil
}

func (m memCollections) Delete(_ context.Context, ownerID, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owned(ownerID, id); !ok {
		return 0, appErr.ErrNotFound
	}
	delete(m.collections, id)
	kept := m.chunks[:0]
	for _, ch := range m.chunks {
		if ch.collectionID != id {
			kept = append(kept, ch)
		}
	}
	m.chunks = kept
	return 1, nil
}

type memDocuments struct{ *memDB }

func (m memDocuments) deleteWhere(scope repo.Scope, match func(*memChunk) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	kept := m.chunks[:0]
	for _, ch := range m.chunks {
		if m.inScope(scope, ch) && match(ch) {
			n++
			continue
		}
		kept = append(kept, ch)
	}
	m.chunks = kept
	return n
}

func fileIDOf(ch *memChunk) string {
	v, _ := ch.metadata[model.MetaFileID].(string)
	return v
}

func (m memDocuments) DeleteByID(_ context.Context, scope repo.Scope, id string) (int64, error) {
	return m.deleteWhere(scope, func(ch *memChunk) bool { return ch.id == id }), nil
}

func (m memDocuments) DeleteByFileID(_ context.Context, scope repo.Scope, fileID string) (int64, error) {
	return m.deleteWhere(scope, func(ch *memChunk) bool { return fileIDOf(ch) == fileID }), nil
}

func (m memDocuments) DeleteByIDs(_ context.Context, scope repo.Scope, ids []string) (int64, error) {
	set := toSet(ids)
	return m.deleteWhere(scope, func(ch *memChunk) bool { _, ok := set[ch.id]; return ok }), nil
}

func (m memDocuments) DeleteByFileIDs(_ context.Context, scope repo.Scope, fileIDs []string) (int64, error) {
	set := toSet(fileIDs)
	return m.deleteWhere(scope, func(ch *memChunk) bool { _, ok := set[fileIDOf(ch)]; return ok }), nil
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

func (m memDocuments) scoped(scope repo.Scope) []*memChunk {
	out := make([]*memChunk, 0)
	for _, ch := range m.chunks {
		if m.inScope(scope, ch) {
			out = append(out, ch)
		}
	}
	return out
}

func record(ch *memChunk) model.DocumentRecord {
	return model.DocumentRecord{ID: ch.id, CollectionID: ch.collectionID, Content: ch.content, Metadata: ch.metadata}
}

func (m memDocuments) List(_ context.Context, scope repo.Scope, limit, offset int) ([]model.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.scoped(scope)
	sort.Slice(items, func(i, j int) bool {
		if fileIDOf(items[i]) != fileIDOf(items[j]) {
			return fileIDOf(items[i]) < fileIDOf(items[j])
		}
		return items[i].id < items[j].id
	})
	out := make([]model.DocumentRecord, 0)
	for i := offset; i < len(items) && len(out) < limit; i++ {
		out = append(out, record(items[i]))
	}
	return out, nil
}

func (m memDocuments) Get(_ context.Context, scope repo.Scope, id string) (*model.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.scoped(scope) {
		if ch.id == id {
			r := record(ch)
			return &r, nil
		}
	}
	return nil, appErr.ErrNotFound
}

// KeywordSearch scores a chunk by how many query words it contains.
func (m memDocuments) KeywordSearch(_ context.Context, scope repo.Scope, query string, k int) ([]model.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordK = append(m.keywordK, k)
	if m.keywordFix != nil {
		return limitResults(m.keywordFix, k), nil
	}
	words := strings.Fields(strings.ToLower(query))
	out := make([]model.SearchResult, 0)
	for _, ch := range m.scoped(scope) {
		score := 0.0
		content := strings.ToLower(ch.content)
		for _, w := range words {
			if strings.Contains(content, w) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		out = append(out, model.SearchResult{ID: ch.id, Content: ch.content, Metadata: ch.metadata, Score: score})
	}
	sortResults(out)
	return limitResults(out, k), nil
}

type memVectors struct{ *memDB }

func (m memVectors) CreateOrOpen(_ context.Context, handle string, env envelope.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, c := range m.collections {
		if c.handle == handle {
			return nil
		}
	}
	id := uuid.NewString()
	m.collections[id] = &memCollection{id: id, handle: handle, env: envelope.Envelope{
		OwnerID:  env.OwnerID,
		Name:     env.Name,
		Metadata: envelope.UserMetadata(env.Metadata),
	}}
	return nil
}

func (m memVectors) AddChunks(_ context.Context, handle string, chunks []model.Chunk) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var target *memCollection
	for _, c := range m.collections {
		if c.handle == handle {
			target = c
		}
	}
	if target == nil {
		return nil, appErr.NotFoundf("segment %s", handle)
	}
	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		m.seq++
		id := fmt.Sprintf("doc-%05d", m.seq)
		meta := map[string]interface{}{}
		for k, v := range chunk.Metadata {
			meta[k] = v
		}
		m.chunks = append(m.chunks, &memChunk{id: id, collectionID: target.id, content: chunk.Content, metadata: meta})
		ids = append(ids, id)
	}
	return ids, nil
}

// SimilaritySearch returns every chunk of the segment; the score is the
// share of query words found in the chunk.
func (m memVectors) SimilaritySearch(_ context.Context, handle string, query string, k int) ([]model.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.semanticK = append(m.semanticK, k)
	if m.semanticFix != nil {
		return limitResults(m.semanticFix, k), nil
	}
	words := strings.Fields(strings.ToLower(query))
	out := make([]model.SearchResult, 0)
	for _, c := range m.collections {
		if c.handle != handle {
			continue
		}
		for _, ch := range m.chunks {
			if ch.collectionID != c.id {
				continue
			}
			hits := 0
			for _, w := range words {
				if strings.Contains(strings.ToLower(ch.content), w) {
					hits++
				}
			}
			out = append(out, model.SearchResult{
				ID:       ch.id,
				Content:  ch.content,
				Metadata: ch.metadata,
				Score:    float64(hits) / float64(len(words)),
			})
		}
	}
	sortResults(out)
	return limitResults(out, k), nil
}

func sortResults(items []model.SearchResult) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

func limitResults(items []model.SearchResult, k int) []model.SearchResult {
	if len(items) > k {
		items = items[:k]
	}
	out := make([]model.SearchResult, len(items))
	copy(out, items)
	return out
}

type fixture struct {
	db          *memDB
	collections *CollectionService
	documents   *DocumentService
	search      *SearchService
}

func newFixture() *fixture {
	db := newMemDB()
	cols := memCollections{db}
	docs := memDocuments{db}
	vecs := memVectors{db}
	return &fixture{
		db:          db,
		collections: NewCollectionService(cols, vecs),
		documents:   NewDocumentService(cols, docs, vecs, nil),
		search:      NewSearchService(cols, docs, vecs, config.DefaultSearchConfig()),
	}
}
