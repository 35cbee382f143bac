package model

const (
	MetaFileID    = "file_id"
	MetaSource    = "source"
	MetaTimestamp = "timestamp"
)

// Chunk is a piece of text waiting to be embedded and stored.
type Chunk struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (c Chunk) FileID() string {
	v, _ := c.Metadata[MetaFileID].(string)
	return v
}

type DocumentRecord struct {
	ID           string                 `json:"id"`
	CollectionID string                 `json:"collection_id"`
	Content      string                 `json:"content"`
	Metadata     map[string]interface{} `json:"metadata"`
}
