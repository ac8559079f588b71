package embedding

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeEmbedResponse struct {
	resp *genai.EmbedContentResponse
	err  error
}

type fakeModels struct {
	mu      sync.Mutex
	queue   []fakeEmbedResponse
	calls   int
	configs []*genai.EmbedContentConfig
	batches [][]string
}

func (f *fakeModels) enqueue(resp *genai.EmbedContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeEmbedResponse{resp: resp, err: err})
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.configs = append(f.configs, config)

	texts := make([]string, 0, len(contents))
	for _, c := range contents {
		texts = append(texts, c.Parts[0].Text)
	}
	f.batches = append(f.batches, texts)

	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func embeddingsResponse(vectors ...[]float32) *genai.EmbedContentResponse {
	resp := &genai.EmbedContentResponse{}
	for _, v := range vectors {
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: v})
	}
	return resp
}

func stubWait(t *testing.T) *[]time.Duration {
	t.Helper()
	original := wait
	var delays []time.Duration
	wait = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { wait = original })
	return &delays
}

func TestGeminiEncodeBatch(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	models.enqueue(embeddingsResponse([]float32{1, 0}, []float32{0, 1}), nil)

	g := &Gemini{models: models, model: "text-embedding-004", dimensions: 2, maxRetries: 1, logger: zap.NewNop()}

	vectors, err := g.EncodeBatch(context.Background(), []string{"Python", "Go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 || vectors[1][1] != 1 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}

	cfg := models.configs[0]
	if cfg.TaskType != geminiTaskType {
		t.Fatalf("unexpected task type: %q", cfg.TaskType)
	}
	if cfg.OutputDimensionality == nil || *cfg.OutputDimensionality != 2 {
		t.Fatalf("expected output dimensionality to be set")
	}
}

func TestGeminiSplitsLargeBatches(t *testing.T) {
	stubWait(t)

	texts := make([]string, geminiBatchLimit+1)
	first := make([][]float32, geminiBatchLimit)
	for i := range texts {
		texts[i] = "skill"
	}
	for i := range first {
		first[i] = []float32{1}
	}

	models := &fakeModels{}
	models.enqueue(embeddingsResponse(first...), nil)
	models.enqueue(embeddingsResponse([]float32{2}), nil)

	g := &Gemini{models: models, model: "m", maxRetries: 1, logger: zap.NewNop()}

	vectors, err := g.EncodeBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	if models.calls != 2 || len(models.batches[1]) != 1 {
		t.Fatalf("expected two requests, got %d", models.calls)
	}
	if vectors[geminiBatchLimit][0] != 2 {
		t.Fatalf("vectors out of order")
	}
}

func TestGeminiRetriesOnTemporaryError(t *testing.T) {
	delays := stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(embeddingsResponse([]float32{0.5, 0.5}), nil)

	g := &Gemini{models: models, model: "m", maxRetries: 2, logger: zap.NewNop()}

	v, err := g.Encode(context.Background(), "Python")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(v) != 2 {
		t.Fatalf("unexpected vector: %v", v)
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
	if len(*delays) != 1 || (*delays)[0] != baseRetryDelay {
		t.Fatalf("unexpected retry delays: %v", *delays)
	}
}

func TestGeminiStopsAfterRetriesExhausted(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g := &Gemini{models: models, model: "m", maxRetries: 2, logger: zap.NewNop()}

	if _, err := g.Encode(context.Background(), "Python"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
}

func TestGeminiDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := &Gemini{models: models, model: "m", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.Encode(context.Background(), "Python"); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}

func TestGeminiDoesNotRetryOnClientError(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Gemini{models: models, model: "m", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.Encode(context.Background(), "Python"); err == nil {
		t.Fatal("expected error")
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}

func TestGeminiRejectsShortResponse(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	models.enqueue(embeddingsResponse([]float32{1}), nil)

	g := &Gemini{models: models, model: "m", maxRetries: 1, logger: zap.NewNop()}

	if _, err := g.EncodeBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on embeddings count mismatch")
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		expect  time.Duration
		ok      bool
	}{
		{message: "retry after 60 seconds", expect: 60 * time.Second, ok: true},
		{message: "Please retry in 2.5s.", expect: 2500 * time.Millisecond, ok: true},
		{message: "quota exceeded", ok: false},
	}

	for _, tt := range tests {
		got, ok := parseRetryAfter(tt.message)
		if ok != tt.ok || got != tt.expect {
			t.Fatalf("parseRetryAfter(%q) = %v, %v", tt.message, got, ok)
		}
	}
}
