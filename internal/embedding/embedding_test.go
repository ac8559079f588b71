package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a, b   []float32
		expect float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, expect: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, expect: 0},
		{name: "opposite", a: []float32{1, 1}, b: []float32{-1, -1}, expect: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, expect: 0},
		{name: "scaled", a: []float32{1, 2}, b: []float32{2, 4}, expect: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.expect) > 1e-9 {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	t.Parallel()

	if _, err := Cosine([]float32{1}, []float32{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestHashDeterministic(t *testing.T) {
	t.Parallel()

	h := NewHash(64)
	ctx := context.Background()

	a, err := h.Encode(ctx, "Python; Machine Learning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := h.Encode(ctx, "Python; Machine Learning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) != 64 {
		t.Fatalf("expected 64 dimensions, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}

	batch, err := h.EncodeBatch(ctx, []string{"Python; Machine Learning", "Go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a {
		if batch[0][i] != a[i] {
			t.Fatalf("batch and single encodings differ at %d", i)
		}
	}
}

func TestHashSimilarity(t *testing.T) {
	t.Parallel()

	h := NewHash(0)
	ctx := context.Background()

	query, _ := h.Encode(ctx, "python developer")
	pythonist, _ := h.Encode(ctx, "Python; SQL")
	gopher, _ := h.Encode(ctx, "Go; Kubernetes")

	near, _ := Cosine(query, pythonist)
	far, _ := Cosine(query, gopher)
	if near <= far {
		t.Fatalf("expected shared vocabulary to score higher: %v <= %v", near, far)
	}

	if h.Model() != "hash-384" {
		t.Fatalf("unexpected model name: %s", h.Model())
	}
}

func TestHashEmptyTextIsZeroVector(t *testing.T) {
	t.Parallel()

	v, err := NewHash(8).Encode(context.Background(), " ;; ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, got %v at %d", x, i)
		}
	}
}

func TestHashKeepsLanguageNames(t *testing.T) {
	t.Parallel()

	got := tokenize("C++; C#, Node.js")
	want := []string{"c++", "c#", "node", "js"}
	if len(got) != len(want) {
		t.Fatalf("unexpected tokens: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected tokens: %v", got)
		}
	}
}

func TestHashHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHash(8).EncodeBatch(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()

	e, err := New(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := e.(*Hash); !ok {
		t.Fatalf("expected hash embedder by default, got %T", e)
	}

	e, err = New(context.Background(), &Config{Provider: " HASH ", Dimensions: 16}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Model() != "hash-16" {
		t.Fatalf("unexpected model: %s", e.Model())
	}

	if _, err := New(context.Background(), &Config{Provider: "word2vec"}, nil); err == nil {
		t.Fatal("expected error for unsupported provider")
	}

	if _, err := New(context.Background(), &Config{Provider: ProviderGemini}, nil); err == nil {
		t.Fatal("expected error when gemini api key is missing")
	}
}
