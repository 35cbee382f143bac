package service

import (
	"bytes"
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/var1ableX/langconnect-client/internal/filestore"
	"github.com/var1ableX/langconnect-client/internal/model"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
	"github.com/var1ableX/langconnect-client/internal/processor"
	"github.com/var1ableX/langconnect-client/internal/vectorstore"
)

// FileProcessor is implemented by processor.Processor.
type FileProcessor interface {
	Process(ctx context.Context, file processor.File, opts processor.Options) ([]model.Chunk, error)
}

// DocumentService stores and removes chunks inside one owner's collection.
type DocumentService struct {
	resolver
	docs      DocumentRepository
	vectors   vectorstore.Store
	processor FileProcessor
	archive   filestore.Store
}

func NewDocumentService(collections CollectionRepository, docs DocumentRepository, vectors vectorstore.Store, proc FileProcessor) *DocumentService {
	return &DocumentService{
		resolver:  resolver{collections: collections},
		docs:      docs,
		vectors:   vectors,
		processor: proc,
	}
}

// WithArchive keeps a copy of every ingested file in store.
func (s *DocumentService) WithArchive(store filestore.Store) *DocumentService {
	s.archive = store
	return s
}

// Upsert embeds and stores chunks, returning their new ids in input order.
func (s *DocumentService) Upsert(ctx context.Context, ownerID, collectionID string, chunks []model.Chunk) ([]string, error) {
	c, _, err := s.resolve(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}
	return s.addChunks(ctx, c, chunks)
}

func (s *DocumentService) addChunks(ctx context.Context, c *model.CollectionDetails, chunks []model.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("owner_id", c.OwnerID), zap.String("collection_id", c.ID))
	ids, err := s.vectors.AddChunks(ctx, c.StorageHandle, chunks)
	if err != nil {
		logger.Error("add chunks failed", zap.Error(err))
		return nil, appErr.Unavailable(err)
	}
	logger.Info("chunks upserted", zap.Int("count", len(ids)))
	return ids, nil
}

type IngestResult struct {
	Name        string   `json:"name"`
	FileID      string   `json:"file_id"`
	DocumentIDs []string `json:"document_ids"`
}

// Ingest processes and stores several files. Each file gets its own
// file_id. Files are handled in order and the first failure stops the
// batch; files stored before it stay stored.
func (s *DocumentService) Ingest(ctx context.Context, ownerID, collectionID string, files []processor.File, opts processor.Options) ([]IngestResult, error) {
	c, _, err := s.resolve(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, appErr.Invalidf("at least one file is required")
	}
	logger := logutil.GetLogger(ctx).With(zap.String("owner_id", ownerID), zap.String("collection_id", collectionID))
	results := make([]IngestResult, 0, len(files))
	for _, file := range files {
		fileOpts := opts
		if _, ok := opts.Metadata[model.MetaSource]; !ok && file.Name != "" {
			fileOpts.Metadata = make(map[string]interface{}, len(opts.Metadata)+1)
			for k, v := range opts.Metadata {
				fileOpts.Metadata[k] = v
			}
			fileOpts.Metadata[model.MetaSource] = file.Name
		}
		chunks, err := s.processor.Process(ctx, file, fileOpts)
		if err != nil {
			logger.Error("process file failed", zap.String("file", file.Name), zap.Error(err))
			return results, err
		}
		ids, err := s.addChunks(ctx, c, chunks)
		if err != nil {
			return results, err
		}
		fileID := ""
		if len(chunks) > 0 {
			fileID = chunks[0].FileID()
		}
		if s.archive != nil && fileID != "" {
			key := filestore.ArchiveKey(collectionID, fileID, file.Name)
			if err := s.archive.Save(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data))); err != nil {
				logger.Warn("archive file failed", zap.String("key", key), zap.Error(err))
			}
		}
		results = append(results, IngestResult{Name: file.Name, FileID: fileID, DocumentIDs: ids})
	}
	return results, nil
}

// Delete removes one chunk by id or all chunks of one file. It reports
// whether anything was removed, so a selector that matches nothing in a live
// collection yields (false, nil) rather than success. Matching nothing is
// only an error when the collection itself is gone.
func (s *DocumentService) Delete(ctx context.Context, ownerID, collectionID, fileID, documentID string) (bool, error) {
	if (fileID == "") == (documentID == "") {
		return false, appErr.Invalidf("exactly one of file_id or document_id is required")
	}
	if err := requireOwner(ownerID); err != nil {
		return false, err
	}
	if !isCollectionID(collectionID) {
		return false, errCollectionNotFound(collectionID)
	}
	scope := scopeOf(ownerID, collectionID)
	var (
		n   int64
		err error
	)
	if documentID != "" {
		n, err = s.docs.DeleteByID(ctx, scope, documentID)
	} else {
		n, err = s.docs.DeleteByFileID(ctx, scope, fileID)
	}
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, s.exists(ctx, scope)
	}
	logutil.GetLogger(ctx).Info("chunks deleted",
		zap.String("owner_id", ownerID),
		zap.String("collection_id", collectionID),
		zap.String("file_id", fileID),
		zap.String("document_id", documentID),
		zap.Int64("count", n),
	)
	return true, nil
}

// DeleteMany removes chunks by id and by file id in two independent
// statements. A chunk matched by both lists is counted once. Either leg
// can be retried on its own.
func (s *DocumentService) DeleteMany(ctx context.Context, ownerID, collectionID string, documentIDs, fileIDs []string) (int64, error) {
	if len(documentIDs) == 0 && len(fileIDs) == 0 {
		return 0, appErr.Invalidf("document_ids or file_ids is required")
	}
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	if !isCollectionID(collectionID) {
		return 0, errCollectionNotFound(collectionID)
	}
	scope := scopeOf(ownerID, collectionID)
	var total int64
	if len(documentIDs) > 0 {
		n, err := s.docs.DeleteByIDs(ctx, scope, documentIDs)
		if err != nil {
			return 0, err
		}
		total += n
	}
	if len(fileIDs) > 0 {
		n, err := s.docs.DeleteByFileIDs(ctx, scope, fileIDs)
		if err != nil {
			return total, err
		}
		total += n
	}
	if total == 0 {
		if err := s.exists(ctx, scope); err != nil {
			return 0, err
		}
	}
	logutil.GetLogger(ctx).Info("chunks deleted",
		zap.String("owner_id", ownerID),
		zap.String("collection_id", collectionID),
		zap.Int64("count", total),
	)
	return total, nil
}

// List pages through chunks ordered by file_id, then id. Pages are read
// independently: concurrent writes between calls can shift rows so that a
// later page repeats or skips some of them.
func (s *DocumentService) List(ctx context.Context, ownerID, collectionID string, limit, offset int) ([]model.DocumentRecord, error) {
	if limit <= 0 || offset < 0 {
		return nil, appErr.Invalidf("limit must be positive and offset not negative")
	}
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if !isCollectionID(collectionID) {
		return nil, errCollectionNotFound(collectionID)
	}
	scope := scopeOf(ownerID, collectionID)
	items, err := s.docs.List(ctx, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if err := s.exists(ctx, scope); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *DocumentService) Get(ctx context.Context, ownerID, collectionID, documentID string) (*model.DocumentRecord, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if !isCollectionID(collectionID) {
		return nil, errCollectionNotFound(collectionID)
	}
	item, err := s.docs.Get(ctx, scopeOf(ownerID, collectionID), documentID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.NotFoundf("document %s", documentID)
		}
		return nil, err
	}
	return item, nil
}
