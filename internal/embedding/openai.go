package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/logger"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-small"
)

type documentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAI embeds text through any OpenAI-compatible embeddings endpoint.
type OpenAI struct {
	embedder documentEmbedder
	model    string
	logger   *zap.Logger
}

// NewOpenAI creates an embedder for the OpenAI-compatible endpoint at baseURL.
// Local servers that need no authentication accept an empty apiKey.
func NewOpenAI(baseURL, apiKey, model string, log *zap.Logger) (*OpenAI, error) {
	if baseURL = strings.TrimSpace(baseURL); baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultOpenAIModel
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey == "" {
		apiKey = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}

	return &OpenAI{
		embedder: embedder,
		model:    model,
		logger:   logger.WithCommonFields(log, ProviderOpenAI, model),
	}, nil
}

func (o *OpenAI) Model() string {
	return o.model
}

func (o *OpenAI) Encode(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (o *OpenAI) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	o.logger.Debug("generating embeddings", zap.Int("count", len(texts)))

	vectors, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("openai endpoint returned %d embeddings for %d inputs", len(vectors), len(texts))
	}

	return vectors, nil
}
