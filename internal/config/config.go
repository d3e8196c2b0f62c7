package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	LogLevel string
	LogFile  string

	HTTPAddr    string
	MaxUploadMB int

	CatalogModule string

	EmbeddingProvider     string
	AzureEndpoint         string
	AzureAPIKey           string
	AzureAPIVersion       string
	AzureDeployment       string
	EmbeddingDimensions   int
	EmbeddingTimeoutMs    int
	EmbeddingRateLimitRPS int
	EmbeddingWorkers      int

	TransportDistanceKm float64
	TransportFactorKgKm float64

	ReportTopN int
}

const (
	ProviderAuto  = "auto"
	ProviderAzure = "azure"
	ProviderMock  = "mock"
)

// Load reads .env, then the environment, then the YAML file named by
// CO2SCRIBE_CONFIG when set.
func Load() (Config, error) {
	return LoadFile(getEnv("CO2SCRIBE_CONFIG", ""))
}

func LoadFile(path string) (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "co2scribe.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		HTTPAddr:    getEnv("HTTP_ADDR", "127.0.0.1:8082"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 64),

		CatalogModule: getEnv("CATALOG_MODULE", "A1-A3"),

		EmbeddingProvider:     strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderAuto)),
		AzureEndpoint:         getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureAPIKey:           getEnv("AZURE_OPENAI_API_KEY", getEnv("OPENAI_API_KEY", "")),
		AzureAPIVersion:       getEnv("AZURE_OPENAI_API_VERSION", "2024-12-01-preview"),
		AzureDeployment:       getEnv("AZURE_OPENAI_EMBEDDING_DEPLOYMENT", "text-embedding-ada-002"),
		EmbeddingDimensions:   getEnvInt("EMBEDDING_DIMENSIONS", 1536),
		EmbeddingTimeoutMs:    getEnvInt("EMBEDDING_TIMEOUT_MS", 30000),
		EmbeddingRateLimitRPS: getEnvInt("EMBEDDING_RATE_LIMIT_RPS", 10),
		EmbeddingWorkers:      getEnvInt("EMBEDDING_WORKERS", 4),

		TransportDistanceKm: getEnvFloat("TRANSPORT_DISTANCE_KM", 100),
		TransportFactorKgKm: getEnvFloat("TRANSPORT_FACTOR_KG_KM", 0.0008),

		ReportTopN: getEnvInt("REPORT_TOP_N", 5),
	}

	if strings.TrimSpace(path) != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.EmbeddingProvider {
	case ProviderAuto, ProviderAzure, ProviderMock:
	default:
		return fmt.Errorf("unsupported EMBEDDING_PROVIDER: %s", c.EmbeddingProvider)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be > 0, got %d", c.EmbeddingDimensions)
	}
	if c.EmbeddingWorkers <= 0 {
		return fmt.Errorf("EMBEDDING_WORKERS must be > 0, got %d", c.EmbeddingWorkers)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
