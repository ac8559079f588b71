package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hh-roster/internal/logger"
	"github.com/spigell/hh-roster/internal/utils"
)

const (
	defaultGeminiModel = "text-embedding-004"
	// Gemini accepts at most this many contents per embed request.
	geminiBatchLimit = 100
	// geminiTaskType is shared by queries and candidates so both land in one space.
	geminiTaskType = "SEMANTIC_SIMILARITY"

	baseRetryDelay = time.Second
	maxRetryDelay  = 10 * time.Second
)

var (
	wait = utils.WaitFor

	retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*(s|sec|secs|second|seconds)?\b`)
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini embeds text with the Google GenAI embeddings API.
type Gemini struct {
	models     contentEmbedder
	model      string
	dimensions int
	maxRetries int
	logger     *zap.Logger
}

// NewGemini creates an embedder configured for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string, dimensions, maxRetries int, log *zap.Logger) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &Gemini{
		models:     client.Models,
		model:      model,
		dimensions: dimensions,
		maxRetries: maxRetries,
		logger:     logger.WithCommonFields(log, ProviderGemini, model),
	}, nil
}

func (g *Gemini) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Gemini) Encode(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *Gemini) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchLimit {
		end := min(start+geminiBatchLimit, len(texts))

		vectors, err := g.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	return out, nil
}

func (g *Gemini) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: text}},
		})
	}

	cfg := &genai.EmbedContentConfig{TaskType: geminiTaskType}
	if g.dimensions > 0 {
		dim := int32(g.dimensions)
		cfg.OutputDimensionality = &dim
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.EmbedContent(ctx, g.model, contents, cfg)
		if err == nil {
			return vectorsFromResponse(resp, len(texts))
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("gemini embed request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("embed content: %w", lastErr)
}

func vectorsFromResponse(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil || len(resp.Embeddings) != want {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini api returned %d embeddings for %d inputs", got, want)
	}

	out := make([][]float32, 0, want)
	for _, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, errors.New("gemini api returned an empty embedding")
		}
		out = append(out, e.Values)
	}
	return out, nil
}

// retryDelay decides whether err is temporary and how long to wait before the next attempt.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return 0, false
		}
		apiErr = *ptr
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if hinted, ok := parseRetryAfter(apiErr.Message); ok {
			if hinted > maxRetryDelay {
				return 0, false
			}
			return hinted, true
		}
	case apiErr.Code >= http.StatusInternalServerError:
	default:
		return 0, false
	}

	return utils.Backoff(attempt, baseRetryDelay, maxRetryDelay), true
}

func parseRetryAfter(message string) (time.Duration, bool) {
	m := retryAfterPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
