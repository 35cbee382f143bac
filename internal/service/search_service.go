package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/var1ableX/langconnect-client/internal/config"
	"github.com/var1ableX/langconnect-client/internal/model"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
	"github.com/var1ableX/langconnect-client/internal/repo"
	"github.com/var1ableX/langconnect-client/internal/vectorstore"
)

// SearchService runs semantic, keyword and hybrid retrieval over one
// collection.
type SearchService struct {
	resolver
	docs    DocumentRepository
	vectors vectorstore.Store
	cfg     config.SearchConfig
}

func NewSearchService(collections CollectionRepository, docs DocumentRepository, vectors vectorstore.Store, cfg config.SearchConfig) *SearchService {
	def := config.DefaultSearchConfig()
	if cfg.SemanticWeight < 0 || cfg.KeywordWeight < 0 || (cfg.SemanticWeight == 0 && cfg.KeywordWeight == 0) {
		cfg.SemanticWeight, cfg.KeywordWeight = def.SemanticWeight, def.KeywordWeight
	}
	if cfg.FilterOverfetch <= 0 {
		cfg.FilterOverfetch = def.FilterOverfetch
	}
	if cfg.HybridOverfetch <= 0 {
		cfg.HybridOverfetch = def.HybridOverfetch
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	return &SearchService{
		resolver: resolver{collections: collections},
		docs:     docs,
		vectors:  vectors,
		cfg:      cfg,
	}
}

// Search resolves the collection first, so an unknown or foreign collection
// is reported as not found before any argument beyond the owner is looked
// at. A zero limit takes the configured default; a limit above the
// configured maximum is rejected.
func (s *SearchService) Search(ctx context.Context, ownerID, collectionID string, req model.SearchRequest) ([]model.SearchResult, error) {
	c, scope, err := s.resolve(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}
	searchType, ok := model.ParseSearchType(string(req.Type))
	if !ok {
		return nil, appErr.Invalidf("unsupported search type %q", req.Type)
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, appErr.Invalidf("query is required")
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit < 0 {
		return nil, appErr.Invalidf("limit must be positive")
	}
	if limit > s.cfg.MaxLimit {
		return nil, appErr.Invalidf("limit must not exceed %d", s.cfg.MaxLimit)
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("owner_id", ownerID),
		zap.String("collection_id", collectionID),
		zap.String("type", string(searchType)),
		zap.Int("limit", limit),
	)

	var results []model.SearchResult
	switch searchType {
	case model.SearchTypeSemantic:
		results, err = s.semantic(ctx, c.StorageHandle, query, s.candidates(limit, req.Filter))
	case model.SearchTypeKeyword:
		results, err = s.keyword(ctx, scope, query, s.candidates(limit, req.Filter))
	case model.SearchTypeHybrid:
		results, err = s.hybrid(ctx, c.StorageHandle, scope, query, limit, req.Filter)
	}
	if err != nil {
		logger.Error("search failed", zap.Error(err))
		return nil, err
	}
	if searchType != model.SearchTypeHybrid {
		results = truncate(applyFilter(results, req.Filter), limit)
	}
	logger.Debug("search finished", zap.Int("results", len(results)))
	return results, nil
}

// candidates widens the fetch when a filter will drop some of the rows.
func (s *SearchService) candidates(limit int, filter map[string]interface{}) int {
	if len(filter) > 0 {
		return limit * s.cfg.FilterOverfetch
	}
	return limit
}

func (s *SearchService) semantic(ctx context.Context, handle, query string, k int) ([]model.SearchResult, error) {
	results, err := s.vectors.SimilaritySearch(ctx, handle, query, k)
	if err != nil {
		return nil, appErr.Unavailable(err)
	}
	return results, nil
}

func (s *SearchService) keyword(ctx context.Context, scope repo.Scope, query string, k int) ([]model.SearchResult, error) {
	return s.docs.KeywordSearch(ctx, scope, query, k)
}

func (s *SearchService) hybrid(ctx context.Context, handle string, scope repo.Scope, query string, limit int, filter map[string]interface{}) ([]model.SearchResult, error) {
	k := limit * s.cfg.HybridOverfetch
	semantic, err := s.semantic(ctx, handle, query, k)
	if err != nil {
		return nil, err
	}
	keyword, err := s.keyword(ctx, scope, query, k)
	if err != nil {
		return nil, err
	}
	return Fuse(semantic, keyword, FuseOptions{
		SemanticWeight: s.cfg.SemanticWeight,
		KeywordWeight:  s.cfg.KeywordWeight,
		Filter:         filter,
		Limit:          limit,
	}), nil
}

func truncate(items []model.SearchResult, limit int) []model.SearchResult {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
