package model

type SearchType string

const (
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeKeyword  SearchType = "keyword"
	SearchTypeHybrid   SearchType = "hybrid"
)

// ParseSearchType accepts only the exact lowercase names. An empty string
// means semantic.
func ParseSearchType(s string) (SearchType, bool) {
	switch t := SearchType(s); t {
	case SearchTypeSemantic, SearchTypeKeyword, SearchTypeHybrid:
		return t, true
	case "":
		return SearchTypeSemantic, true
	default:
		return t, false
	}
}

type SearchRequest struct {
	Query  string
	Limit  int
	Type   SearchType
	Filter map[string]interface{}
}

// SearchResult is one ranked chunk. For semantic results Score is cosine
// similarity (higher is better), for keyword results it is ts_rank, for
// hybrid results it is the weighted combination of both normalized scores.
type SearchResult struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"page_content"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float64                `json:"score"`
}
