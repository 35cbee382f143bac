package model

// Collection is the caller-facing view of a collection. Name and Metadata
// are kept apart; they only share a column in storage.
type Collection struct {
	ID       string                 `json:"uuid"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

type CollectionSummary struct {
	Collection
	DocumentCount int64 `json:"document_count"`
	ChunkCount    int64 `json:"chunk_count"`
}

type CollectionDetails struct {
	Collection
	OwnerID string `json:"-"`
	// StorageHandle addresses the vector store segment. Internal only.
	StorageHandle string `json:"-"`
}
