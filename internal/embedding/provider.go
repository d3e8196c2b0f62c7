package embedding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/config"
)

var (
	ErrEmptyText   = errors.New("embedding: empty text")
	ErrNoEmbedding = errors.New("embedding: provider returned no vector")
)

// Provider maps text to a fixed-dimension vector. Any error means "no
// embedding" to callers; it is never fatal to a run.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Name() string
}

// NewProvider picks Azure when a key and endpoint are configured, unless the
// mock is forced. Falling back to the mock is logged as a warning.
func NewProvider(cfg config.Config, logger zerolog.Logger) (Provider, error) {
	logger = logger.With().Str("component", "embedding").Logger()

	switch cfg.EmbeddingProvider {
	case config.ProviderMock:
		logger.Info().Int("dims", cfg.EmbeddingDimensions).Msg("using mock embeddings")
		return NewMockProvider(cfg.EmbeddingDimensions), nil
	case config.ProviderAzure:
		if err := cfg.Require("AZURE_OPENAI_API_KEY", cfg.AzureAPIKey); err != nil {
			return nil, err
		}
		if err := cfg.Require("AZURE_OPENAI_ENDPOINT", cfg.AzureEndpoint); err != nil {
			return nil, err
		}
		return NewAzureProvider(cfg), nil
	}

	if strings.TrimSpace(cfg.AzureAPIKey) == "" || strings.TrimSpace(cfg.AzureEndpoint) == "" {
		logger.Warn().Msg("no Azure OpenAI key or endpoint configured, using mock embeddings")
		return NewMockProvider(cfg.EmbeddingDimensions), nil
	}
	logger.Info().Str("endpoint", cfg.AzureEndpoint).Str("deployment", cfg.AzureDeployment).Msg("using Azure OpenAI embeddings")
	return NewAzureProvider(cfg), nil
}

// Timeout bounds one provider call.
func Timeout(cfg config.Config) time.Duration {
	if cfg.EmbeddingTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.EmbeddingTimeoutMs) * time.Millisecond
}
