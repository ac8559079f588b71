package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/embedding"
	"github.com/spigell/hh-roster/internal/logger"
	"github.com/spigell/hh-roster/internal/retrieval"
	"github.com/spigell/hh-roster/internal/roster"
	"github.com/spigell/hh-roster/internal/secrets"
)

// env bundles what every command needs once the configuration is resolved.
type env struct {
	config *Config
	logger *zap.Logger
	engine *retrieval.Engine
}

func (e *env) Close() {
	e.engine.Close()
	e.logger.Sync()
}

// bootstrap builds the logger, loads the roster and creates the engine.
// Startup failures are fatal.
func bootstrap(ctx context.Context) *env {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Retrieval == nil || config.Embedding == nil {
		logger.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	employees, err := roster.Load(config.Data)
	if err != nil {
		logger.Fatal("loading employees",
			zap.Error(err),
			zap.String("hint", "set the 'data' key in the configuration file, --data flag or HH_ROSTER_DATA"),
		)
	}

	logger.Info("employees loaded", zap.Int("count", employees.Len()), zap.String("path", config.Data))

	embedder, err := newEmbedder(ctx, config.Embedding, logger)
	if err != nil {
		logger.Fatal("creating an embedder", zap.Error(err))
	}

	engine, err := retrieval.New(employees, embedder,
		retrieval.WithLogger(logger),
		retrieval.WithTimeout(config.Retrieval.Timeout),
		retrieval.WithWorkers(config.Retrieval.Workers),
	)
	if err != nil {
		logger.Fatal("creating a retrieval engine", zap.Error(err))
	}

	return &env{config: config, logger: logger, engine: engine}
}

var providerKeyEnv = map[string][]string{
	embedding.ProviderGemini: {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	embedding.ProviderOpenAI: {"OPENAI_API_KEY"},
}

func newEmbedder(ctx context.Context, cfg *EmbeddingConfig, l *zap.Logger) (embedding.Embedder, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	apiKey := ""
	if provider != "" && provider != embedding.ProviderHash {
		key, err := secrets.Load(secrets.Source{
			Name:  provider + " api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   providerKeyEnv[provider],
		})
		switch {
		case err == nil:
			apiKey = key
		case errors.Is(err, secrets.ErrNotConfigured) && provider == embedding.ProviderOpenAI:
			// local OpenAI-compatible servers usually run without a key
		default:
			return nil, fmt.Errorf("%w (set embedding.api-key-file or %s_EMBEDDING_API_KEY)", err, envPrefix)
		}
	}

	embedder, err := embedding.New(ctx, &embedding.Config{
		Provider:   provider,
		Model:      cfg.Model,
		APIKey:     apiKey,
		BaseURL:    cfg.BaseURL,
		Dimensions: cfg.Dimensions,
		MaxRetries: cfg.MaxRetries,
	}, l)
	if err != nil {
		return nil, err
	}

	l.Info("embedder ready", logger.CommonFields(provider, embedder.Model())...)
	return embedder, nil
}

// redacted returns a copy of config that is safe to log.
func redacted(config *Config) *Config {
	out := *config
	if config.Embedding != nil {
		e := *config.Embedding
		if e.APIKey != "" {
			e.APIKey = "***"
		}
		out.Embedding = &e
	}
	return &out
}
