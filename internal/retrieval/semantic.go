package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/embedding"
	"github.com/spigell/hh-roster/internal/logger"
	"github.com/spigell/hh-roster/internal/roster"
)

// Match is a ranked semantic result.
type Match struct {
	Record roster.EmployeeRecord
	// Index is the position of the record in the roster.
	Index int
	Score float64
}

// RetrieveByText returns up to k employees whose skills are most similar to query,
// best match first. A non-positive k means DefaultK.
func (e *Engine) RetrieveByText(ctx context.Context, query string, k int) ([]roster.EmployeeRecord, error) {
	matches, err := e.ScoreByText(ctx, query, k)
	if err != nil {
		return nil, err
	}

	records := make([]roster.EmployeeRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, m.Record)
	}
	return records, nil
}

// ScoreByText ranks the roster against query by cosine similarity and returns the
// top min(k, roster size) matches in descending score order. Equal scores keep
// roster order, so a query sharing nothing with the roster (including blank
// text) yields the first k records.
func (e *Engine) ScoreByText(ctx context.Context, query string, k int) ([]Match, error) {
	n := e.roster.Len()
	if n == 0 {
		return []Match{}, nil
	}
	if k <= 0 {
		k = DefaultK
	}

	started := time.Now()
	queryVec, candidates, err := e.encode(ctx, query)
	if err != nil {
		e.logger.Warn("embedding step failed",
			logger.Query(query, e.maxLogLen),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	matches := make([]Match, 0, n)
	for idx, vec := range candidates {
		score, err := embedding.Cosine(queryVec, vec)
		if err != nil {
			return nil, fmt.Errorf("%w: candidate #%d: %w", ErrEmbedding, idx, err)
		}
		matches = append(matches, Match{Index: idx, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	matches = matches[:min(k, n)]
	for i := range matches {
		matches[i].Record = e.roster.At(matches[i].Index)
	}

	e.logger.Debug("semantic search",
		logger.Query(query, e.maxLogLen),
		zap.Int("k", k),
		zap.Int("candidates", n),
		zap.Int("returned", len(matches)),
		zap.Duration("took", time.Since(started)),
	)

	return matches, nil
}

// encode embeds the query and every candidate description under the engine timeout.
func (e *Engine) encode(ctx context.Context, query string) ([]float32, [][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	queryVec, err := e.embedder.Encode(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding query: %w", err)
	}

	candidates, err := e.encodeCandidates(ctx, e.roster.Descriptions())
	if err != nil {
		return nil, nil, fmt.Errorf("encoding candidates: %w", err)
	}

	return queryVec, candidates, nil
}

func (e *Engine) encodeCandidates(ctx context.Context, texts []string) ([][]float32, error) {
	if e.pool == nil || len(texts) < 2 {
		return e.encodeChunk(ctx, texts)
	}

	size := (len(texts) + e.workers - 1) / e.workers
	out := make([][]float32, len(texts))
	errs := make([]error, 0)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			vectors, err := e.encodeChunk(ctx, texts[start:end])
			if err != nil {
				fail(err)
				return
			}
			copy(out[start:end], vectors)
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting encoding task: %w", err))
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (e *Engine) encodeChunk(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EncodeBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}
