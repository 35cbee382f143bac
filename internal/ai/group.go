package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

// fallbackEmbedder asks each entry in turn. Entries must return vectors of
// one dimension: chunks stored through one entry are searched with query
// vectors from whichever entry answers later.
type fallbackEmbedder struct {
	entries []EmbedderEntry
}

// NewGroupEmbedder drops nil entries and returns nil when none remain. A
// single entry is returned as is.
func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	entries := make([]EmbedderEntry, 0, len(items))
	for _, item := range items {
		if item.Embedder != nil {
			entries = append(entries, item)
		}
	}
	switch len(entries) {
	case 0:
		return nil
	case 1:
		return entries[0].Embedder
	}
	return &fallbackEmbedder{entries: entries}
}

func (f *fallbackEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	errs := make([]error, 0, len(f.entries))
	for i, entry := range f.entries {
		values, err := entry.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			if i > 0 {
				logutil.GetLogger(ctx).Debug("embedding served by fallback", zap.String("name", entry.Name))
			}
			return values, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", entry.Name, err))
		// a dead context fails every remaining entry the same way
		if ctx.Err() != nil {
			break
		}
		logutil.GetLogger(ctx).Warn("embedder failed, trying next",
			zap.Int("index", i),
			zap.String("name", entry.Name),
			zap.Error(err),
		)
	}
	return nil, errors.Join(errs...)
}

func (f *fallbackEmbedder) ModelName() string {
	names := make([]string, 0, len(f.entries))
	for _, entry := range f.entries {
		names = append(names, entry.Embedder.ModelName())
	}
	return strings.Join(names, "|")
}
