package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/var1ableX/langconnect-client/internal/pkg/registry"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIConfig also covers OpenAI-compatible servers such as TEI or vLLM,
// which usually need no key.
type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type openAIEmbedProvider struct {
	apiKey  string
	baseURL string

	clients sync.Map // model -> *embeddings.EmbedderImpl
}

func (p *openAIEmbedProvider) Name() string {
	return "openai"
}

func (p *openAIEmbedProvider) client(model string) (*embeddings.EmbedderImpl, error) {
	if cached, ok := p.clients.Load(model); ok {
		return cached.(*embeddings.EmbedderImpl), nil
	}
	token := p.apiKey
	if token == "" {
		if p.baseURL == defaultOpenAIBaseURL {
			return nil, ErrUnavailable
		}
		// the client refuses an empty token even when the server ignores it
		token = "placeholder"
	}
	llm, err := openai.New(
		openai.WithBaseURL(p.baseURL),
		openai.WithEmbeddingModel(model),
		openai.WithToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	e, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}
	actual, _ := p.clients.LoadOrStore(model, e)
	return actual.(*embeddings.EmbedderImpl), nil
}

// Embed ignores taskType; OpenAI-style endpoints embed queries and
// documents the same way.
func (p *openAIEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	e, err := p.client(model)
	if err != nil {
		return nil, err
	}
	values, err := e.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("openai response has no embeddings")
	}
	return values, nil
}

func createOpenAIEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &openAIConfig{}
	if err := registry.Decode(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &openAIEmbedProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	RegisterEmbed("openai", createOpenAIEmbedFactory)
}
