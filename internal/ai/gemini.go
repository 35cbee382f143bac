package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/var1ableX/langconnect-client/internal/pkg/registry"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
	// Dimension truncates returned vectors. Zero keeps the model default.
	Dimension int32 `json:"dimension"`
}

// geminiEmbedProvider shares one client across calls. The client is built
// on first use so a provider without a key can still be registered as a
// fallback entry.
type geminiEmbedProvider struct {
	apiKey    string
	dimension int32

	once      sync.Once
	client    *genai.Client
	clientErr error
}

func (p *geminiEmbedProvider) Name() string {
	return "gemini"
}

func (p *geminiEmbedProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return p.client, p.clientErr
}

func (p *geminiEmbedProvider) contentConfig(taskType string) *genai.EmbedContentConfig {
	if taskType == "" && p.dimension <= 0 {
		return nil
	}
	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if p.dimension > 0 {
		dim := p.dimension
		cfg.OutputDimensionality = &dim
	}
	return cfg
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	resp, err := client.Models.EmbedContent(ctx, model, genai.Text(text), p.contentConfig(taskType))
	if err != nil {
		return nil, fmt.Errorf("gemini embed %s: %w", model, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embed %s: empty response", model)
	}
	return resp.Embeddings[0].Values, nil
}

func createGeminiEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &geminiConfig{}
	if err := registry.Decode(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dimension < 0 {
		return nil, fmt.Errorf("gemini dimension must not be negative")
	}
	return &geminiEmbedProvider{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		dimension: cfg.Dimension,
	}, nil
}

func init() {
	RegisterEmbed("gemini", createGeminiEmbedFactory)
}
