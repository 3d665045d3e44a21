package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/goliatone/go-analytics-embed/pkg/telemetry"
)

// ServerConfig is read from the environment, optionally seeded from .env
// files.
type ServerConfig struct {
	Address          string `env:"ADDRESS" envDefault:":8080"`
	BasePath         string `env:"BASE_PATH" envDefault:""`
	PublicURL        string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	ReportsURL       string `env:"REPORTS_URL"`
	ReportsAPIKey    string `env:"REPORTS_API_KEY"`
	MongoURI         string `env:"MONGODB_CONNECTION_URI"`
	MongoDatabase    string `env:"MONGODB_DBNAME" envDefault:"analytics"`
	MongoCollection  string `env:"MONGODB_COLLECTION" envDefault:"analytics"`
	CatalogPath      string `env:"CATALOG_PATH"`
	TranslationsPath string `env:"TRANSLATIONS_PATH"`
	ConfigCacheTTL   int    `env:"CONFIG_CACHE_TTL_SECONDS" envDefault:"30"`
	SnapshotCacheTTL int    `env:"SNAPSHOT_CACHE_TTL_SECONDS" envDefault:"300"`
	EChartsCDN       string `env:"ANALYTIC_ECHARTS_CDN"`

	Log telemetry.LogConfig `env:"-"`
}

// LoadConfig loads the given .env files (missing files are skipped) and
// parses the environment.
func LoadConfig(files ...string) (ServerConfig, error) {
	for _, file := range files {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return ServerConfig{}, fmt.Errorf("embedserver: load env file %s: %w", file, err)
		}
	}
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("embedserver: parse env: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return ServerConfig{}, fmt.Errorf("embedserver: parse log env: %w", err)
	}
	return cfg, nil
}

func (c ServerConfig) configCacheTTL() time.Duration {
	return time.Duration(c.ConfigCacheTTL) * time.Second
}

func (c ServerConfig) snapshotCacheTTL() time.Duration {
	if c.SnapshotCacheTTL <= 0 {
		return analytic.DefaultSnapshotTTL
	}
	return time.Duration(c.SnapshotCacheTTL) * time.Second
}

// loadTranslations reads a YAML file keyed by locale then message key.
func loadTranslations(path string) (analytic.StaticTranslations, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("embedserver: read translations %s: %w", path, err)
	}
	var out analytic.StaticTranslations
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("embedserver: parse translations %s: %w", path, err)
	}
	return out, nil
}
