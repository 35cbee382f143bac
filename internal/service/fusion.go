package service

import (
	"math"
	"sort"

	"github.com/var1ableX/langconnect-client/internal/model"
)

type FuseOptions struct {
	SemanticWeight float64
	KeywordWeight  float64
	Filter         map[string]interface{}
	// Limit caps the output. Zero keeps everything.
	Limit int
}

type fused struct {
	item         model.SearchResult
	semanticRank int
	keywordRank  int
}

// Fuse merges a semantic and a keyword result list. Each list is scaled by
// its own maximum score into [0,1]; a list whose maximum is not positive
// contributes nothing. A result's score becomes
//
//	SemanticWeight*semantic_norm + KeywordWeight*keyword_norm
//
// with a missing side counting as zero. The filter runs on the merged set,
// then results are ordered by score, semantic rank, keyword rank and id.
func Fuse(semantic, keyword []model.SearchResult, opts FuseOptions) []model.SearchResult {
	notRanked := len(semantic) + len(keyword)
	byID := make(map[string]*fused, notRanked)
	order := make([]*fused, 0, notRanked)

	add := func(list []model.SearchResult, weight float64, isSemantic bool) {
		norm := normalizer(list)
		for rank, item := range list {
			entry, ok := byID[item.ID]
			if !ok {
				entry = &fused{item: item, semanticRank: notRanked, keywordRank: notRanked}
				entry.item.Score = 0
				byID[item.ID] = entry
				order = append(order, entry)
			}
			if isSemantic {
				if entry.semanticRank != notRanked {
					continue
				}
				entry.semanticRank = rank
			} else {
				if entry.keywordRank != notRanked {
					continue
				}
				entry.keywordRank = rank
			}
			entry.item.Score += weight * norm(item.Score)
		}
	}
	add(semantic, opts.SemanticWeight, true)
	add(keyword, opts.KeywordWeight, false)

	kept := make([]*fused, 0, len(order))
	for _, entry := range order {
		if len(opts.Filter) > 0 && !MatchFilter(entry.item.Metadata, opts.Filter) {
			continue
		}
		kept = append(kept, entry)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.item.Score != b.item.Score {
			return a.item.Score > b.item.Score
		}
		if a.semanticRank != b.semanticRank {
			return a.semanticRank < b.semanticRank
		}
		if a.keywordRank != b.keywordRank {
			return a.keywordRank < b.keywordRank
		}
		return a.item.ID < b.item.ID
	})
	if opts.Limit > 0 && len(kept) > opts.Limit {
		kept = kept[:opts.Limit]
	}
	out := make([]model.SearchResult, 0, len(kept))
	for _, entry := range kept {
		out = append(out, entry.item)
	}
	return out
}

func normalizer(list []model.SearchResult) func(float64) float64 {
	top := 0.0
	for _, item := range list {
		if item.Score > top && !math.IsInf(item.Score, 1) {
			top = item.Score
		}
	}
	return func(score float64) float64 {
		if top <= 0 || score <= 0 || math.IsNaN(score) {
			return 0
		}
		if score >= top {
			return 1
		}
		return score / top
	}
}
