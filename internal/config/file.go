package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout. Pointers distinguish "absent" from
// zero so only keys present in the file override the environment.
type fileConfig struct {
	DBPath    *string `yaml:"db_path"`
	OutputDir *string `yaml:"output_dir"`

	Log struct {
		Level *string `yaml:"level"`
		File  *string `yaml:"file"`
	} `yaml:"log"`

	HTTP struct {
		Addr        *string `yaml:"addr"`
		MaxUploadMB *int    `yaml:"max_upload_mb"`
	} `yaml:"http"`

	Catalog struct {
		Module *string `yaml:"module"`
	} `yaml:"catalog"`

	Embedding struct {
		Provider     *string `yaml:"provider"`
		Endpoint     *string `yaml:"endpoint"`
		APIVersion   *string `yaml:"api_version"`
		Deployment   *string `yaml:"deployment"`
		Dimensions   *int    `yaml:"dimensions"`
		TimeoutMs    *int    `yaml:"timeout_ms"`
		RateLimitRPS *int    `yaml:"rate_limit_rps"`
		Workers      *int    `yaml:"workers"`
	} `yaml:"embedding"`

	Transport struct {
		DistanceKm *float64 `yaml:"distance_km"`
		FactorKgKm *float64 `yaml:"factor_kg_km"`
	} `yaml:"transport"`

	Report struct {
		TopN *int `yaml:"top_n"`
	} `yaml:"report"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.DBPath, fc.DBPath)
	setString(&cfg.OutputDir, fc.OutputDir)
	setString(&cfg.LogLevel, fc.Log.Level)
	setString(&cfg.LogFile, fc.Log.File)
	setString(&cfg.HTTPAddr, fc.HTTP.Addr)
	setInt(&cfg.MaxUploadMB, fc.HTTP.MaxUploadMB)
	setString(&cfg.CatalogModule, fc.Catalog.Module)
	if fc.Embedding.Provider != nil {
		cfg.EmbeddingProvider = strings.ToLower(strings.TrimSpace(*fc.Embedding.Provider))
	}
	setString(&cfg.AzureEndpoint, fc.Embedding.Endpoint)
	setString(&cfg.AzureAPIVersion, fc.Embedding.APIVersion)
	setString(&cfg.AzureDeployment, fc.Embedding.Deployment)
	setInt(&cfg.EmbeddingDimensions, fc.Embedding.Dimensions)
	setInt(&cfg.EmbeddingTimeoutMs, fc.Embedding.TimeoutMs)
	setInt(&cfg.EmbeddingRateLimitRPS, fc.Embedding.RateLimitRPS)
	setInt(&cfg.EmbeddingWorkers, fc.Embedding.Workers)
	setFloat(&cfg.TransportDistanceKm, fc.Transport.DistanceKm)
	setFloat(&cfg.TransportFactorKgKm, fc.Transport.FactorKgKm)
	setInt(&cfg.ReportTopN, fc.Report.TopN)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
