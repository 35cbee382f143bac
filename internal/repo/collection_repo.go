package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/var1ableX/langconnect-client/internal/envelope"
	"github.com/var1ableX/langconnect-client/internal/model"
	"github.com/var1ableX/langconnect-client/internal/pkg/dbutil"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

const (
	CollectionTable = "langchain_pg_collection"
	EmbeddingTable  = "langchain_pg_embedding"
)

// ownerClause restricts langchain_pg_collection rows to one owner. The
// owner lives inside the envelope, never in a column of its own.
const ownerClause = "cmetadata->>'owner_id' = ?"

type CollectionRepo struct {
	db *sql.DB
}

func NewCollectionRepo(db *sql.DB) *CollectionRepo {
	return &CollectionRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCollection(row rowScanner) (*model.CollectionDetails, error) {
	var (
		id     string
		handle string
		raw    []byte
	)
	if err := row.Scan(&id, &handle, &raw); err != nil {
		return nil, err
	}
	env, err := envelope.Decode(raw)
	if err != nil {
		return nil, err
	}
	return &model.CollectionDetails{
		Collection: model.Collection{
			ID:       id,
			Name:     env.Name,
			Metadata: env.Metadata,
		},
		OwnerID:       env.OwnerID,
		StorageHandle: handle,
	}, nil
}

// List returns every collection of ownerID with its distinct file count and
// chunk count, computed in one aggregate query.
func (r *CollectionRepo) List(ctx context.Context, ownerID string) ([]model.CollectionSummary, error) {
	const query = `
		SELECT c.uuid, c.name, c.cmetadata,
			COUNT(DISTINCT e.cmetadata->>'file_id') AS document_count,
			COUNT(e.id) AS chunk_count
		FROM langchain_pg_collection c
		LEFT JOIN langchain_pg_embedding e ON e.collection_id = c.uuid
		WHERE c.cmetadata->>'owner_id' = $1
		GROUP BY c.uuid
		ORDER BY c.cmetadata->>'name', c.uuid
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	defer rows.Close()
	items := make([]model.CollectionSummary, 0)
	for rows.Next() {
		var (
			id         string
			handle     string
			raw        []byte
			docCount   int64
			chunkCount int64
		)
		if err := rows.Scan(&id, &handle, &raw, &docCount, &chunkCount); err != nil {
			return nil, dbutil.Wrap(err)
		}
		env, err := envelope.Decode(raw)
		if err != nil {
			return nil, appErr.Unavailable(err)
		}
		items = append(items, model.CollectionSummary{
			Collection: model.Collection{
				ID:       id,
				Name:     env.Name,
				Metadata: env.Metadata,
			},
			DocumentCount: docCount,
			ChunkCount:    chunkCount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, dbutil.Wrap(err)
	}
	return items, nil
}

func (r *CollectionRepo) Get(ctx context.Context, ownerID, id string) (*model.CollectionDetails, error) {
	const query = `
		SELECT uuid, name, cmetadata
		FROM langchain_pg_collection
		WHERE uuid = $1 AND cmetadata->>'owner_id' = $2
	`
	item, err := scanCollection(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	return item, nil
}

// GetByHandle looks a collection up by its storage handle.
func (r *CollectionRepo) GetByHandle(ctx context.Context, ownerID, handle string) (*model.CollectionDetails, error) {
	const query = `
		SELECT uuid, name, cmetadata
		FROM langchain_pg_collection
		WHERE name = $1 AND cmetadata->>'owner_id' = $2
	`
	item, err := scanCollection(r.db.QueryRowContext(ctx, query, handle, ownerID))
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	return item, nil
}

// ReplaceEnvelope overwrites the whole envelope. env.OwnerID must be the
// current owner; it is also used to scope the update.
func (r *CollectionRepo) ReplaceEnvelope(ctx context.Context, id string, env envelope.Envelope) (*model.CollectionDetails, error) {
	data, err := env.Encode()
	if err != nil {
		return nil, appErr.Invalidf("%v", err)
	}
	const query = `
		UPDATE langchain_pg_collection
		SET cmetadata = $1::jsonb
		WHERE uuid = $2 AND cmetadata->>'owner_id' = $3
		RETURNING uuid, name, cmetadata
	`
	item, err := scanCollection(r.db.QueryRowContext(ctx, query, string(data), id, env.OwnerID))
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	return item, nil
}

// ReplaceMetadataKeepName swaps the user metadata while carrying the stored
// name over inside the same statement.
func (r *CollectionRepo) ReplaceMetadataKeepName(ctx context.Context, ownerID, id string, metadata map[string]interface{}) (*model.CollectionDetails, error) {
	merged := envelope.UserMetadata(metadata)
	merged[envelope.KeyOwnerID] = ownerID
	data, err := envelope.EncodeMetadata(merged)
	if err != nil {
		return nil, appErr.Invalidf("encode metadata: %v", err)
	}
	const query = `
		UPDATE langchain_pg_collection
		SET cmetadata = $1::jsonb || jsonb_build_object('name', COALESCE(cmetadata->'name', to_jsonb($2::text)))
		WHERE uuid = $3 AND cmetadata->>'owner_id' = $4
		RETURNING uuid, name, cmetadata
	`
	item, err := scanCollection(r.db.QueryRowContext(ctx, query, string(data), envelope.DefaultName, id, ownerID))
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	return item, nil
}

// Rename sets the name key and leaves the rest of the envelope untouched.
func (r *CollectionRepo) Rename(ctx context.Context, ownerID, id, name string) (*model.CollectionDetails, error) {
	const query = `
		UPDATE langchain_pg_collection
		SET cmetadata = jsonb_set(cmetadata, '{name}', to_jsonb($1::text), true)
		WHERE uuid = $2 AND cmetadata->>'owner_id' = $3
		RETURNING uuid, name, cmetadata
	`
	item, err := scanCollection(r.db.QueryRowContext(ctx, query, name, id, ownerID))
	if err != nil {
		return nil, dbutil.Wrap(err)
	}
	return item, nil
}

// Delete removes the collection row; its chunks go with it through the
// foreign key cascade.
func (r *CollectionRepo) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	where := map[string]interface{}{
		"uuid":          id,
		"_custom_owner": builder.Custom(ownerClause, ownerID),
	}
	sqlStr, args, err := builder.BuildDelete(CollectionTable, where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, dbutil.Wrap(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, dbutil.Wrap(err)
	}
	if affected == 0 {
		return 0, appErr.ErrNotFound
	}
	return affected, nil
}
