package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultHashDimensions = 384

// Hash is a local, dependency-free embedder based on feature hashing.
// Every lower-cased word token is hashed into one of Dimensions buckets with a
// hash-derived sign, so texts sharing vocabulary end up close together.
type Hash struct {
	dim int
}

// NewHash returns a hash embedder producing vectors of the given size.
func NewHash(dimensions int) *Hash {
	if dimensions <= 0 {
		dimensions = defaultHashDimensions
	}
	return &Hash{dim: dimensions}
}

func (h *Hash) Model() string {
	return fmt.Sprintf("%s-%d", ProviderHash, h.dim)
}

func (h *Hash) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vector(text), nil
}

func (h *Hash) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *Hash) vector(text string) []float32 {
	vec := make([]float64, h.dim)
	for _, token := range tokenize(text) {
		hasher := fnv.New64a()
		hasher.Write([]byte(token))
		sum := hasher.Sum64()

		bucket := int(sum % uint64(h.dim))
		if sum>>63 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, h.dim)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// tokenize splits on anything that is not a letter, digit, '+' or '#',
// which keeps names like "C++" and "C#" intact.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
