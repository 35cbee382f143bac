package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/var1ableX/langconnect-client/internal/envelope"
	"github.com/var1ableX/langconnect-client/internal/model"
	"github.com/var1ableX/langconnect-client/internal/pkg/dbutil"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

// Scope names one collection as seen by one owner. Every chunk query joins
// through the collection row and checks the owner, so a foreign collection
// id behaves exactly like a missing one.
type Scope struct {
	OwnerID      string
	CollectionID string
}

const (
	scopedFrom = `
		FROM langchain_pg_embedding e
		JOIN langchain_pg_collection c ON c.uuid = e.collection_id
		WHERE e.collection_id = $1 AND c.cmetadata->>'owner_id' = $2`
	scopedDelete = `
		DELETE FROM langchain_pg_embedding e
		USING langchain_pg_collection c
		WHERE c.uuid = e.collection_id
			AND e.collection_id = $1 AND c.cmetadata->>'owner_id' = $2`
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dbutil.Wrap(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, dbutil.Wrap(err)
	}
	return affected, nil
}

func (r *DocumentRepo) DeleteByID(ctx context.Context, scope Scope, id string) (int64, error) {
	return r.exec(ctx, scopedDelete+` AND e.id = $3`, scope.CollectionID, scope.OwnerID, id)
}

// DeleteByFileID removes every chunk produced from one uploaded file.
func (r *DocumentRepo) DeleteByFileID(ctx context.Context, scope Scope, fileID string) (int64, error) {
	return r.exec(ctx, scopedDelete+` AND e.cmetadata->>'file_id' = $3`, scope.CollectionID, scope.OwnerID, fileID)
}

func (r *DocumentRepo) DeleteByIDs(ctx context.Context, scope Scope, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.exec(ctx, scopedDelete+` AND e.id = ANY($3)`, scope.CollectionID, scope.OwnerID, pq.Array(ids))
}

func (r *DocumentRepo) DeleteByFileIDs(ctx context.Context, scope Scope, fileIDs []string) (int64, error) {
	if len(fileIDs) == 0 {
		return 0, nil
	}
	return r.exec(ctx, scopedDelete+` AND e.cmetadata->>'file_id' = ANY($3)`, scope.CollectionID, scope.OwnerID, pq.Array(fileIDs))
}

func scanDocuments(rows *sql.Rows) ([]model.DocumentRecord, error) {
	items := make([]model.DocumentRecord, 0)
	for rows.Next() {
		var (
			item model.DocumentRecord
			raw  []byte
		)
		if err := rows.Scan(&item.ID, &item.CollectionID, &item.Content, &raw); err != nil {
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

// List pages through the chunks of a collection ordered by file_id, then id.
func (r *DocumentRepo) List(ctx context.Context, scope Scope, limit, offset int) ([]model.DocumentRecord, error) {
	query := `SELECT e.id, e.collection_id, e.document, e.cmetadata` + scopedFrom + `
		ORDER BY e.cmetadata->>'file_id', e.id
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, scope.CollectionID, scope.OwnerID, limit, offset)
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *DocumentRepo) Get(ctx context.Context, scope Scope, id string) (*model.DocumentRecord, error) {
	query := `SELECT e.id, e.collection_id, e.document, e.cmetadata` + scopedFrom + ` AND e.id = $3`
	rows, err := r.db.QueryContext(ctx, query, scope.CollectionID, scope.OwnerID, id)
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	defer rows.Close()
	items, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

// KeywordSearch ranks chunks with ts_rank over the english text search
// configuration. Chunks that do not match the query are left out.
func (r *DocumentRepo) KeywordSearch(ctx context.Context, scope Scope, query string, k int) ([]model.SearchResult, error) {
	if k <= 0 {
		return nil, appErr.Invalidf("keyword search k must be positive")
	}
	sqlStr := `SELECT e.id, e.document, e.cmetadata,
			ts_rank(to_tsvector('english', e.document), plainto_tsquery('english', $3)) AS score` + scopedFrom + `
			AND to_tsvector('english', e.document) @@ plainto_tsquery('english', $3)
		ORDER BY score DESC, e.id
		LIMIT $4`
	rows, err := r.db.QueryContext(ctx, sqlStr, scope.CollectionID, scope.OwnerID, query, k)
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	defer rows.Close()
	items := make([]model.SearchResult, 0)
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
