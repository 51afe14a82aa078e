package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration of the shop backend.
type Config struct {
	Env         string   `yaml:"env"`
	Addr        string   `yaml:"addr"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`

	Store StoreConfig `yaml:"store"`
	Auth  AuthConfig  `yaml:"auth"`
	LLM   LLMConfig   `yaml:"llm"`
}

type StoreConfig struct {
	// Driver is one of postgres, mongo or memory.
	Driver        string `yaml:"driver"`
	PostgresURL   string `yaml:"postgres_url"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

type AuthConfig struct {
	SecurityAPIURL string        `yaml:"security_api_url"`
	SecurityAPIKey string        `yaml:"security_api_key"`
	JWTSecret      string        `yaml:"jwt_secret"`
	Timeout        time.Duration `yaml:"timeout"`
}

type LLMConfig struct {
	// Provider is one of openai or gemini.
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	Language       string        `yaml:"language"`
}

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultGeminiModel = "gemini-2.5-flash"
)

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Env:         "production",
		Addr:        ":5000",
		LogLevel:    "info",
		CORSOrigins: []string{"*"},
		Store: StoreConfig{
			Driver:        DriverPostgres,
			MongoDatabase: "fitness_shop",
		},
		Auth: AuthConfig{
			Timeout: 8 * time.Second,
		},
		LLM: LLMConfig{
			Provider:       ProviderOpenAI,
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			Timeout:        30 * time.Second,
			MaxRetries:     2,
			RetryBaseDelay: 500 * time.Millisecond,
			Language:       "Spanish",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a
// .env file and finally the process environment. An empty path falls back to
// CONFIG_FILE.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.LLM.Provider == ProviderGemini && cfg.LLM.Model == Default().LLM.Model {
		cfg.LLM.Model = DefaultGeminiModel
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.Addr, "APP_ADDR")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("APP_ADDR") == "" {
		cfg.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	setString(&cfg.LogLevel, "LOG_LEVEL")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.PostgresURL, "DATABASE_URL")
	setString(&cfg.Store.MongoURI, "MONGO_URI")
	setString(&cfg.Store.MongoDatabase, "MONGO_DATABASE")

	setString(&cfg.Auth.SecurityAPIURL, "SECURITY_API_URL")
	setString(&cfg.Auth.SecurityAPIKey, "SECURITY_API_KEY")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.LLM.Model, "OPENAI_MODEL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.Language, "AI_LANGUAGE")
	if cfg.LLM.Provider == ProviderGemini {
		setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	}

	var errs []error
	errs = append(errs,
		setDuration(&cfg.Auth.Timeout, "AUTH_TIMEOUT"),
		setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT"),
		setDuration(&cfg.LLM.RetryBaseDelay, "LLM_RETRY_BASE_DELAY"),
		setInt(&cfg.LLM.MaxRetries, "LLM_MAX_RETRIES"),
	)
	return errors.Join(errs...)
}

// Validate reports settings that make the process unable to start.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is not set"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is not set"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, errors.New("LLM_MAX_RETRIES must be >= 0"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
