// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/smallnest/teamgraph/log"
)

// Server configures the HTTP listener.
type Server struct {
	Host               string   `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port               int      `env:"SERVER_PORT" envDefault:"4080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LLM selects and configures the model provider.
type LLM struct {
	Provider        string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-sonnet-latest"`
}

// Tools configures the worker tools.
type Tools struct {
	SearchProvider   string        `env:"SEARCH_PROVIDER" envDefault:"tavily"`
	TavilyAPIKey     string        `env:"TAVILY_API_KEY"`
	BraveAPIKey      string        `env:"BRAVE_API_KEY"`
	SearchMaxResults int           `env:"SEARCH_MAX_RESULTS" envDefault:"5"`
	WorkingDirectory string        `env:"WORKING_DIRECTORY" envDefault:"./workspace"`
	PythonPath       string        `env:"PYTHON_PATH" envDefault:"python3"`
	CodeTimeout      time.Duration `env:"CODE_TIMEOUT" envDefault:"30s"`
}

// Run configures graph execution and streaming.
type Run struct {
	RecursionLimit       int      `env:"RECURSION_LIMIT" envDefault:"150"`
	StreamFilterEnabled  bool     `env:"STREAM_FILTER_ENABLED" envDefault:"false"`
	StreamFilterPrefixes []string `env:"STREAM_FILTER_PREFIXES" envDefault:"search:,note_taker:" envSeparator:","`
	StreamBufferSize     int      `env:"STREAM_BUFFER_SIZE" envDefault:"64"`
}

// Checkpoint selects where per-step checkpoints are kept.
type Checkpoint struct {
	Backend       string `env:"CHECKPOINT_BACKEND" envDefault:"none"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"./teamgraph.db"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
}

// Config is the complete service configuration.
type Config struct {
	Server     Server
	LLM        LLM
	Tools      Tools
	Run        Run
	Checkpoint Checkpoint
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	for i, p := range cfg.Run.StreamFilterPrefixes {
		cfg.Run.StreamFilterPrefixes[i] = strings.TrimSpace(p)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d is out of range", c.Server.Port))
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be openai or anthropic, got %q", c.LLM.Provider))
	}

	switch c.Tools.SearchProvider {
	case "tavily", "brave":
	default:
		errs = append(errs, fmt.Errorf("SEARCH_PROVIDER must be tavily or brave, got %q", c.Tools.SearchProvider))
	}
	if c.Tools.SearchMaxResults <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_MAX_RESULTS must be positive"))
	}
	if c.Tools.CodeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CODE_TIMEOUT must be positive"))
	}

	if c.Run.RecursionLimit <= 0 {
		errs = append(errs, fmt.Errorf("RECURSION_LIMIT must be positive"))
	}
	if c.Run.StreamBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("STREAM_BUFFER_SIZE must be positive"))
	}

	switch c.Checkpoint.Backend {
	case "none", "memory", "redis", "sqlite":
	case "postgres":
		if c.Checkpoint.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("POSTGRES_DSN is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("CHECKPOINT_BACKEND %q is not supported", c.Checkpoint.Backend))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
