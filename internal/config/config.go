package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	AI struct {
		Provider    string        `yaml:"provider"`
		APIKey      string        `yaml:"apiKey"`
		Model       string        `yaml:"model"`
		BaseURL     string        `yaml:"baseURL"`
		CallTimeout time.Duration `yaml:"callTimeout"`
		MaxTokens   int           `yaml:"maxTokens"`
	} `yaml:"ai"`

	Session struct {
		IdleTTL       time.Duration `yaml:"idleTTL"`
		SweepInterval time.Duration `yaml:"sweepInterval"`
	} `yaml:"session"`

	HTTP struct {
		MaxUploadMB    int      `yaml:"maxUploadMB"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		RateLimit      struct {
			Capacity        int `yaml:"capacity"`
			RefillPerSecond int `yaml:"refillPerSecond"`
		} `yaml:"rateLimit"`
	} `yaml:"http"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load baca .env (kalau ada) lalu file config.yaml; ${VAR} di yaml diganti dari env
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, expands environment references, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	// report analysis waits on the provider, so writes get more room than reads
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderGemini
	}
	if c.AI.APIKey == "" {
		c.AI.APIKey = apiKeyFromEnv(c.AI.Provider)
	}
	if c.AI.Model == "" && c.AI.Provider == ProviderGemini {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.CallTimeout == 0 {
		c.AI.CallTimeout = 60 * time.Second
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 4096
	}

	if c.Session.IdleTTL == 0 {
		c.Session.IdleTTL = 30 * time.Minute
	}
	if c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = time.Minute
	}

	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 10
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.HTTP.RateLimit.Capacity == 0 {
		c.HTTP.RateLimit.Capacity = 30
	}
	if c.HTTP.RateLimit.RefillPerSecond == 0 {
		c.HTTP.RateLimit.RefillPerSecond = 1
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func apiKeyFromEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			return v
		}
		return os.Getenv("API_KEY")
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid ai.provider %q (allowed: gemini, openai)", c.AI.Provider)
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.apiKey is required for provider %s", c.AI.Provider)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.AI.CallTimeout < 0 || c.Session.IdleTTL < 0 || c.Session.SweepInterval < 0 {
		return errors.New("durations must not be negative")
	}
	if c.HTTP.MaxUploadMB < 0 {
		return fmt.Errorf("invalid http.maxUploadMB %d", c.HTTP.MaxUploadMB)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q (allowed: text, json)", c.Log.Format)
	}
	return nil
}

// MaxUploadBytes is the request body cap for report uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.HTTP.MaxUploadMB) << 20
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
