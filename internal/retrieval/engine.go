// Package retrieval answers queries against the employee roster.
//
// Two independent modes are supported. Semantic mode embeds the query and
// every candidate's skill description with one Embedder and ranks candidates
// by cosine similarity. Structured mode runs exact predicates (skill,
// minimum experience, project substring) and keeps roster order.
//
// An Engine holds no mutable state besides an optional worker pool, so a
// single instance serves concurrent requests.
package retrieval

import (
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/embedding"
	"github.com/spigell/hh-roster/internal/roster"
)

const (
	// DefaultK is the number of semantic matches returned when the caller does not ask for a size.
	DefaultK = 5

	defaultTimeout      = 30 * time.Second
	defaultMaxLogLength = 120
)

var (
	// ErrInvalidCriteria is returned for malformed structured-query parameters.
	ErrInvalidCriteria = errors.New("invalid criteria")
	// ErrEmbedding wraps failures of the embedding step, including timeouts.
	ErrEmbedding = errors.New("embedding failed")
)

// Engine ranks and filters a read-only roster.
type Engine struct {
	roster   *roster.Roster
	embedder embedding.Embedder
	logger   *zap.Logger

	timeout   time.Duration
	workers   int
	pool      *ants.Pool
	maxLogLen int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = zap.NewNop()
		}
		e.logger = logger
	}
}

// WithTimeout bounds the embedding step of every semantic query.
// Non-positive values keep the default of 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithWorkers splits candidate encoding into n concurrent chunks.
// Values below 2 encode the roster in a single batch.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an engine over r using embedder for semantic queries.
func New(r *roster.Roster, embedder embedding.Embedder, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if r == nil {
		r = roster.New(nil)
	}

	e := &Engine{
		roster:    r,
		embedder:  embedder,
		logger:    zap.NewNop(),
		timeout:   defaultTimeout,
		maxLogLen: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.workers > 1 {
		pool, err := ants.NewPool(e.workers)
		if err != nil {
			return nil, fmt.Errorf("creating encoding pool: %w", err)
		}
		e.pool = pool
	}

	return e, nil
}

// Close releases the encoding pool, if any.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Roster returns the roster the engine serves.
func (e *Engine) Roster() *roster.Roster {
	return e.roster
}

// Model returns the identifier of the embedding model in use.
func (e *Engine) Model() string {
	return e.embedder.Model()
}
