package service

import (
	"context"

	"github.com/var1ableX/langconnect-client/internal/envelope"
	"github.com/var1ableX/langconnect-client/internal/model"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
	"github.com/var1ableX/langconnect-client/internal/repo"
)

// CollectionRepository is implemented by repo.CollectionRepo.
type CollectionRepository interface {
	List(ctx context.Context, ownerID string) ([]model.CollectionSummary, error)
	Get(ctx context.Context, ownerID, id string) (*model.CollectionDetails, error)
	GetByHandle(ctx context.Context, ownerID, handle string) (*model.CollectionDetails, error)
	ReplaceEnvelope(ctx context.Context, id string, env envelope.Envelope) (*model.CollectionDetails, error)
	ReplaceMetadataKeepName(ctx context.Context, ownerID, id string, metadata map[string]interface{}) (*model.CollectionDetails, error)
	Rename(ctx context.Context, ownerID, id, name string) (*model.CollectionDetails, error)
	Delete(ctx context.Context, ownerID, id string) (int64, error)
}

// DocumentRepository is implemented by repo.DocumentRepo.
type DocumentRepository interface {
	DeleteByID(ctx context.Context, scope repo.Scope, id string) (int64, error)
	DeleteByFileID(ctx context.Context, scope repo.Scope, fileID string) (int64, error)
	DeleteByIDs(ctx context.Context, scope repo.Scope, ids []string) (int64, error)
	DeleteByFileIDs(ctx context.Context, scope repo.Scope, fileIDs []string) (int64, error)
	List(ctx context.Context, scope repo.Scope, limit, offset int) ([]model.DocumentRecord, error)
	Get(ctx context.Context, scope repo.Scope, id string) (*model.DocumentRecord, error)
	KeywordSearch(ctx context.Context, scope repo.Scope, query string, k int) ([]model.SearchResult, error)
}

var (
	_ CollectionRepository = (*repo.CollectionRepo)(nil)
	_ DocumentRepository   = (*repo.DocumentRepo)(nil)
)

func scopeOf(ownerID, collectionID string) repo.Scope {
	return repo.Scope{OwnerID: ownerID, CollectionID: collectionID}
}

// resolver is the one place that turns (owner, collection id) into an
// authorized collection. Document and search paths go through it before
// touching any chunk.
type resolver struct {
	collections CollectionRepository
}

func (r resolver) resolve(ctx context.Context, ownerID, collectionID string) (*model.CollectionDetails, repo.Scope, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, repo.Scope{}, err
	}
	if !isCollectionID(collectionID) {
		return nil, repo.Scope{}, errCollectionNotFound(collectionID)
	}
	c, err := r.collections.Get(ctx, ownerID, collectionID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, repo.Scope{}, errCollectionNotFound(collectionID)
		}
		return nil, repo.Scope{}, err
	}
	return c, scopeOf(ownerID, c.ID), nil
}

// exists re-checks a collection after an operation matched nothing.
func (r resolver) exists(ctx context.Context, scope repo.Scope) error {
	_, err := r.collections.Get(ctx, scope.OwnerID, scope.CollectionID)
	if appErr.IsNotFound(err) {
		return errCollectionNotFound(scope.CollectionID)
	}
	return err
}
