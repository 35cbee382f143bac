// Package processor turns uploaded files into chunks ready for embedding.
package processor

import (
	"context"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/var1ableX/langconnect-client/internal/model"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// File is one upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Options tunes a single Process call. A zero ChunkSize takes the
// processor's default; a nil ChunkOverlap takes the processor's default, cut
// down to a fifth of the chunk size when it would not fit. An explicit 0 means
// no overlap.
type Options struct {
	ChunkSize    int
	ChunkOverlap *int
	Metadata     map[string]interface{}
}

// Overlap is shorthand for setting Options.ChunkOverlap.
func Overlap(n int) *int {
	return &n
}

// DefaultOverlap is the overlap used when none is requested for size.
func DefaultOverlap(size, preferred int) int {
	if preferred < size {
		return preferred
	}
	return size / 5
}

type Processor struct {
	chunkSize    int
	chunkOverlap int
	newFileID    func() string
}

func New(chunkSize, chunkOverlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Processor{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		newFileID:    uuid.NewString,
	}
}

// Process parses file, merges caller metadata into every parsed part,
// splits the parts and stamps all resulting chunks with one fresh file_id.
func (p *Processor) Process(ctx context.Context, file File, opts Options) ([]model.Chunk, error) {
	size, overlap := p.chunkSize, p.chunkOverlap
	if opts.ChunkSize > 0 {
		size = opts.ChunkSize
	}
	if opts.ChunkOverlap != nil {
		overlap = *opts.ChunkOverlap
	} else {
		overlap = DefaultOverlap(size, overlap)
	}
	if overlap < 0 {
		return nil, appErr.Invalidf("chunk_overlap (%d) must not be negative", overlap)
	}
	if overlap >= size {
		return nil, appErr.Invalidf("chunk_overlap (%d) must be smaller than chunk_size (%d)", overlap, size)
	}

	mimeType := DetectMIME(file.ContentType, file.Name)
	docs, err := parse(ctx, mimeType, file.Data)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]any{}
		}
		for k, v := range opts.Metadata {
			docs[i].Metadata[k] = v
		}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)
	parts, err := textsplitter.SplitDocuments(splitter, docs)
	if err != nil {
		return nil, appErr.Invalidf("split %s: %v", file.Name, err)
	}

	fileID := p.newFileID()
	chunks := make([]model.Chunk, 0, len(parts))
	for _, part := range parts {
		chunks = append(chunks, toChunk(part, fileID))
	}
	logutil.GetLogger(ctx).Debug("file processed",
		zap.String("file", file.Name),
		zap.String("mime", mimeType),
		zap.String("file_id", fileID),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// toChunk copies metadata, since the splitter shares one map between all
// parts of a document.
func toChunk(doc schema.Document, fileID string) model.Chunk {
	meta := make(map[string]interface{}, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta[model.MetaFileID] = fileID
	return model.Chunk{Content: doc.PageContent, Metadata: meta}
}
