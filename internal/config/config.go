package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderGenAI  = "genai"
)

const (
	envDSN    = "LOREFIELD_DSN"
	envAPIKey = "LOREFIELD_SEMANTIC_API_KEY"
)

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Profile  string         `yaml:"profile"`
	Semantic SemanticConfig `yaml:"semantic"`
	Log      LogConfig      `yaml:"log"`
	Sources  []string       `yaml:"sources"`
	Exclude  []string       `yaml:"exclude"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SemanticConfig controls the optional embedding-backed path matcher. Enabled
// is the "semantic mapping enabled" switch consulted by the resolvers.
type SemanticConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Provider          string        `yaml:"provider"`
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	MinScore          float64       `yaml:"min_score"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
	CacheSize         int           `yaml:"cache_size"`
	Concepts          []string      `yaml:"concepts"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *ProjectConfig) {
	if dsn := strings.TrimSpace(os.Getenv(envDSN)); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if key := strings.TrimSpace(os.Getenv(envAPIKey)); key != "" {
		cfg.Semantic.APIKey = key
	}
}

func applyDefaults(cfg *ProjectConfig) {
	s := &cfg.Semantic
	if s.Provider == "" {
		s.Provider = ProviderOllama
	}
	if s.Endpoint == "" && s.Provider == ProviderOllama {
		s.Endpoint = "http://localhost:11434"
	}
	if s.Model == "" {
		switch s.Provider {
		case ProviderGenAI:
			s.Model = "gemini-embedding-001"
		default:
			s.Model = "nomic-embed-text"
		}
	}
	if s.MinScore == 0 {
		s.MinScore = 0.55
	}
	if s.RequestsPerSecond == 0 {
		s.RequestsPerSecond = 5
	}
	if s.Burst == 0 {
		s.Burst = 1
	}
	if s.Timeout == 0 {
		s.Timeout = 10 * time.Second
	}
	if s.CacheSize == 0 {
		s.CacheSize = 512
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return fmt.Errorf("database dsn is required")
	}
	if !strings.HasPrefix(dsn, "sqlite://") && !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("unsupported database dsn scheme: %s", dsn)
	}

	s := cfg.Semantic
	switch s.Provider {
	case ProviderOllama, ProviderGenAI:
	default:
		return fmt.Errorf("unknown semantic provider: %s", s.Provider)
	}
	if s.Enabled && s.Provider == ProviderGenAI && strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("semantic provider genai requires an api key")
	}
	if s.MinScore < 0 || s.MinScore > 1 {
		return fmt.Errorf("semantic min_score must be between 0 and 1, got %v", s.MinScore)
	}
	if s.RequestsPerSecond < 0 {
		return fmt.Errorf("semantic requests_per_second must not be negative")
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("semantic cache_size must not be negative")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.Log.Level)
	}

	return nil
}
