package ai

import (
	"context"
	"errors"
	"time"

	"github.com/var1ableX/langconnect-client/internal/pkg/registry"
)

var ErrUnavailable = errors.New("embedding provider unavailable")

// IEmbedProvider talks to one remote embedding backend.
type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

// IEmbedder is a provider bound to a model.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type timeoutEmbedder struct {
	next    IEmbedder
	timeout time.Duration
}

// WithTimeout bounds every Embed call on e.
func WithTimeout(e IEmbedder, timeout time.Duration) IEmbedder {
	if e == nil || timeout <= 0 {
		return e
	}
	return &timeoutEmbedder{next: e, timeout: timeout}
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Embed(ctx, text, taskType)
}

func (t *timeoutEmbedder) ModelName() string {
	return t.next.ModelName()
}

var providers = registry.New[IEmbedProvider]("embedding provider")

// RegisterEmbed makes a provider type available to the embedding config.
func RegisterEmbed(name string, factory registry.Factory[IEmbedProvider]) {
	providers.Register(name, factory)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	return providers.Build(name, args)
}
