package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchcore configuration.
type Config struct {
	HTTP      HTTPConfig       `yaml:"http"`
	Database  DatabaseConfig   `yaml:"database"`
	Library   LibraryConfig    `yaml:"library"`
	Embedding EmbeddingConfig  `yaml:"embedding"`
	Search    SearchConfig     `yaml:"search"`
	Providers []ProviderConfig `yaml:"providers"`
	Router    RouterConfig     `yaml:"router"`
	Auth      AuthConfig       `yaml:"auth"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // 0 keeps streaming responses open
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// DatabaseConfig holds key-value store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, none (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	EmbeddingTTLSec  int      `yaml:"embedding_cache_ttl_sec"` // 0 = no expiry
}

// LibraryConfig holds the global document library settings.
type LibraryConfig struct {
	Path string `yaml:"path"` // empty disables the library
}

// EmbeddingConfig holds query embedding settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool {
	return e.APIKey != "" && e.Model != ""
}

// SearchConfig holds cache, progressive search and retrieval settings.
type SearchConfig struct {
	CacheTTLSec       int      `yaml:"cache_ttl_sec"`
	CacheMaxSize      int      `yaml:"cache_max_size"`
	BatchSize         int      `yaml:"batch_size"`
	MaxBatches        int      `yaml:"max_batches"`
	BatchDelayMs      int      `yaml:"batch_delay_ms"`
	PreloadDelayMs    int      `yaml:"preload_delay_ms"`
	MinSimilarity     float64  `yaml:"min_similarity"`
	DefaultMaxResults int      `yaml:"default_max_results"`
	PopularQueries    []string `yaml:"popular_queries"`
}

// Provider kinds.
const (
	KindSerper     = "serper"
	KindWikipedia  = "wikipedia"
	KindDuckDuckGo = "duckduckgo"
)

// ProviderConfig holds one external search provider.
type ProviderConfig struct {
	Name              string  `yaml:"name"`
	Kind              string  `yaml:"kind"`
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	Enabled           *bool   `yaml:"enabled"` // nil = enabled
}

// IsEnabled reports whether the provider should be wired.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// RouterConfig holds the model routing catalog. Empty profiles and rules
// select the built-in catalog.
type RouterConfig struct {
	Profiles           []ProfileConfig   `yaml:"profiles"`
	Rules              []RuleConfig      `yaml:"rules"`
	Downgrades         map[string]string `yaml:"downgrades"`
	DowngradeThreshold int               `yaml:"downgrade_threshold"`
}

// ProfileConfig describes a model profile.
type ProfileConfig struct {
	ID                 string  `yaml:"id"`
	Model              string  `yaml:"model"`
	Description        string  `yaml:"description"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float64 `yaml:"temperature"`
	TopP               float64 `yaml:"top_p"`
	CostPerThousand    float64 `yaml:"cost_per_thousand"`
	ContextWindowLimit int     `yaml:"context_window_limit"`
}

// RuleConfig describes a routing rule. Patterns are Go regular expressions.
type RuleConfig struct {
	Name     string   `yaml:"name"`
	Target   string   `yaml:"target"`
	MinWords int      `yaml:"min_words"`
	MaxWords int      `yaml:"max_words"`
	Keywords []string `yaml:"keywords"`
	Patterns []string `yaml:"patterns"`
	Priority int      `yaml:"priority"`
}

// UsesDefaultCatalog reports whether the built-in catalog applies.
func (r RouterConfig) UsesDefaultCatalog() bool {
	return len(r.Profiles) == 0 && len(r.Rules) == 0
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML configuration.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}

	s := &c.Search
	if s.CacheTTLSec <= 0 {
		s.CacheTTLSec = 30 * 60
	}
	if s.CacheMaxSize <= 0 {
		s.CacheMaxSize = 100
	}
	if s.BatchSize <= 0 {
		s.BatchSize = 3
	}
	if s.MaxBatches <= 0 {
		s.MaxBatches = 3
	}
	if s.BatchDelayMs <= 0 {
		s.BatchDelayMs = 200
	}
	if s.PreloadDelayMs <= 0 {
		s.PreloadDelayMs = 250
	}
	if s.DefaultMaxResults <= 0 {
		s.DefaultMaxResults = 5
	}

	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Name == "" {
			p.Name = p.Kind
		}
		if p.TimeoutSec <= 0 {
			p.TimeoutSec = 10
		}
		if p.RequestsPerSecond <= 0 {
			p.RequestsPerSecond = 5
		}
		if p.Burst <= 0 {
			p.Burst = 1
		}
	}

	if c.Router.DowngradeThreshold <= 0 {
		c.Router.DowngradeThreshold = 50000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required")
		}
	case DriverNone:
	default:
		return fmt.Errorf("database.driver must be valkey, redis or none, got %q", c.Database.Driver)
	}

	if c.Search.MinSimilarity < -1 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be within [-1, 1], got %v", c.Search.MinSimilarity)
	}

	if err := c.validateProviders(); err != nil {
		return err
	}
	return c.validateRouter()
}

func (c *Config) validateProviders() error {
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		switch p.Kind {
		case KindSerper:
			if p.IsEnabled() && p.APIKey == "" {
				return fmt.Errorf("providers[%d] (%s): api_key is required for serper", i, p.Name)
			}
		case KindWikipedia, KindDuckDuckGo:
		default:
			return fmt.Errorf("providers[%d]: unknown kind %q", i, p.Kind)
		}
		if seen[p.Name] {
			return fmt.Errorf("providers[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

func (c *Config) validateRouter() error {
	for i, r := range c.Router.Rules {
		if r.MaxWords > 0 && r.MinWords > r.MaxWords {
			return fmt.Errorf("router.rules[%d] (%s): min_words %d exceeds max_words %d",
				i, r.Name, r.MinWords, r.MaxWords)
		}
		for _, p := range r.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("router.rules[%d] (%s): invalid pattern %q: %w", i, r.Name, p, err)
			}
		}
	}
	if len(c.Router.Rules) > 0 && len(c.Router.Profiles) == 0 {
		return errors.New("router.rules require router.profiles")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
