package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/var1ableX/langconnect-client/internal/envelope"
	"github.com/var1ableX/langconnect-client/internal/model"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
	"github.com/var1ableX/langconnect-client/internal/vectorstore"
)

// CollectionService owns collection lifecycle for each owner.
type CollectionService struct {
	collections CollectionRepository
	vectors     vectorstore.Store
	newHandle   func() string
}

func NewCollectionService(collections CollectionRepository, vectors vectorstore.Store) *CollectionService {
	return &CollectionService{
		collections: collections,
		vectors:     vectors,
		newHandle:   newStorageHandle,
	}
}

// List orders collections by name, then id. Names are not unique.
func (s *CollectionService) List(ctx context.Context, ownerID string) ([]model.CollectionSummary, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.collections.List(ctx, ownerID)
}

func (s *CollectionService) Get(ctx context.Context, ownerID, id string) (*model.CollectionDetails, error) {
	c, _, err := resolver{collections: s.collections}.resolve(ctx, ownerID, id)
	return c, err
}

func (s *CollectionService) Create(ctx context.Context, ownerID, name string, metadata map[string]interface{}) (*model.CollectionDetails, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErr.Invalidf("collection name is required")
	}
	logger := logutil.GetLogger(ctx).With(zap.String("owner_id", ownerID), zap.String("name", name))
	env := envelope.Envelope{
		OwnerID:  ownerID,
		Name:     name,
		Metadata: envelope.UserMetadata(metadata),
	}
	handle := s.newHandle()
	if err := s.vectors.CreateOrOpen(ctx, handle, env); err != nil {
		logger.Error("create collection storage failed", zap.String("handle", handle), zap.Error(err))
		if appErr.HasKind(err) && !appErr.IsNotFound(err) {
			return nil, err
		}
		return nil, appErr.Conflictf("create collection storage: %v", err)
	}
	c, err := s.collections.GetByHandle(ctx, ownerID, handle)
	if err != nil {
		if appErr.IsNotFound(err) {
			// the handle existed already and belongs to someone else
			return nil, appErr.Conflictf("storage handle %s is taken", handle)
		}
		return nil, err
	}
	logger.Info("collection created", zap.String("collection_id", c.ID))
	return c, nil
}

// Update changes the name, the metadata, or both. A nil metadata map means
// "leave metadata alone"; an empty map clears it.
func (s *CollectionService) Update(ctx context.Context, ownerID, id string, name *string, metadata map[string]interface{}) (*model.CollectionDetails, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if name == nil && metadata == nil {
		return nil, appErr.Invalidf("must update at least one attribute")
	}
	var newName string
	if name != nil {
		newName = strings.TrimSpace(*name)
		if newName == "" {
			return nil, appErr.Invalidf("collection name must not be empty")
		}
	}
	if !isCollectionID(id) {
		return nil, errCollectionNotFound(id)
	}

	var (
		c   *model.CollectionDetails
		err error
	)
	switch {
	case name == nil:
		c, err = s.collections.ReplaceMetadataKeepName(ctx, ownerID, id, metadata)
	case metadata == nil:
		c, err = s.collections.Rename(ctx, ownerID, id, newName)
	default:
		c, err = s.collections.ReplaceEnvelope(ctx, id, envelope.Envelope{
			OwnerID:  ownerID,
			Name:     newName,
			Metadata: envelope.UserMetadata(metadata),
		})
	}
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, errCollectionNotFound(id)
		}
		return nil, err
	}
	logutil.GetLogger(ctx).Info("collection updated",
		zap.String("owner_id", ownerID),
		zap.String("collection_id", id),
		zap.Bool("rename", name != nil),
		zap.Bool("metadata", metadata != nil),
	)
	return c, nil
}

// Delete removes the collection and, through the schema cascade, all of
// its chunks.
func (s *CollectionService) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	if !isCollectionID(id) {
		return 0, errCollectionNotFound(id)
	}
	n, err := s.collections.Delete(ctx, ownerID, id)
	if err != nil {
		if appErr.IsNotFound(err) {
			return 0, errCollectionNotFound(id)
		}
		return 0, err
	}
	logutil.GetLogger(ctx).Info("collection deleted", zap.String("owner_id", ownerID), zap.String("collection_id", id))
	return n, nil
}
