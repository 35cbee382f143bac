package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/var1ableX/langconnect-client/internal/ai"
	"github.com/var1ableX/langconnect-client/internal/envelope"
	"github.com/var1ableX/langconnect-client/internal/model"
	"github.com/var1ableX/langconnect-client/internal/pkg/dbutil"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

// PGVectorStore keeps segments in the langchain_pg_collection and
// langchain_pg_embedding tables.
type PGVectorStore struct {
	db       *sql.DB
	embedder ai.IEmbedder
}

func NewPGVectorStore(db *sql.DB, embedder ai.IEmbedder) *PGVectorStore {
	return &PGVectorStore{db: db, embedder: embedder}
}

func (s *PGVectorStore) CreateOrOpen(ctx context.Context, handle string, env envelope.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return appErr.Invalidf("%v", err)
	}
	const query = `
		INSERT INTO langchain_pg_collection (uuid, name, cmetadata)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), handle, string(data)); err != nil {
		return dbutil.Wrap(err)
	}
	return nil
}

func (s *PGVectorStore) collectionID(ctx context.Context, handle string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT uuid FROM langchain_pg_collection WHERE name = $1`, handle).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", appErr.NotFoundf("segment %s", handle)
	}
	if err != nil {
		return "", dbutil.Wrap(err)
	}
	return id, nil
}

func (s *PGVectorStore) AddChunks(ctx context.Context, handle string, chunks []model.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}
	collectionID, err := s.collectionID(ctx, handle)
	if err != nil {
		return nil, err
	}
	vectors := make([]pgvector.Vector, 0, len(chunks))
	for i, chunk := range chunks {
		values, err := s.embedder.Embed(ctx, chunk.Content, model.TaskRetrievalDocument)
		if err != nil {
			return nil, appErr.Unavailable(fmt.Errorf("embed chunk %d: %w", i, err))
		}
		vectors = append(vectors, pgvector.NewVector(values))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO langchain_pg_embedding (id, collection_id, embedding, document, cmetadata)
		VALUES ($1, $2, $3, $4, $5::jsonb)
	`)
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	defer stmt.Close()
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		meta, err := envelope.EncodeMetadata(chunk.Metadata)
		if err != nil {
			return nil, appErr.Invalidf("chunk %d metadata: %v", i, err)
		}
		id := uuid.NewString()
		if _, err := stmt.ExecContext(ctx, id, collectionID, vectors[i], chunk.Content, string(meta)); err != nil {
			return nil, dbutil.Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, dbutil.Wrap(err)
	}
	logutil.GetLogger(ctx).Debug("chunks stored", zap.String("handle", handle), zap.Int("count", len(ids)))
	return ids, nil
}

func (s *PGVectorStore) SimilaritySearch(ctx context.Context, handle string, query string, k int) ([]model.SearchResult, error) {
	if k <= 0 {
		return []model.SearchResult{}, nil
	}
	values, err := s.embedder.Embed(ctx, query, model.TaskRetrievalQuery)
	if err != nil {
		return nil, appErr.Unavailable(fmt.Errorf("embed query: %w", err))
	}
	const sqlStr = `
		SELECT e.id, e.document, e.cmetadata, 1 - (e.embedding <=> $2) AS score
		FROM langchain_pg_embedding e
		JOIN langchain_pg_collection c ON c.uuid = e.collection_id
		WHERE c.name = $1
		ORDER BY e.embedding <=> $2, e.id
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, sqlStr, handle, pgvector.NewVector(values), k)
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	defer rows.Close()
	items := []model.SearchResult{}
	for rows.Next() {
		var (
			item model.SearchResult
			raw  []byte
		)
		if err := rows.Scan(&item.ID, &item.Content, &raw, &item.Score); err != nil {
			return nil, dbutil.Wrap(err)
		}
		meta, err := envelope.DecodeMetadata(raw)
		if err != nil {
			return nil, appErr.Unavailable(err)
		}
		item.Metadata = meta
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dbutil.Wrap(err)
	}
	return items, nil
}
