package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pharmalens/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Pipeline  PipelineConfig
	Auth      AuthConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig holds the SQLite store location
type StoreConfig struct {
	Path            string        `mapstructure:"path"`
	ProductsTable   string        `mapstructure:"products_table"`
	CreateIfMissing bool          `mapstructure:"create_if_missing"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// PipelineConfig tunes normalization and grouping
type PipelineConfig struct {
	Sentinel      string   `mapstructure:"sentinel"`
	Capitalize    []string `mapstructure:"capitalize"`
	OtherLabel    string   `mapstructure:"other_label"`
	NameSeparator string   `mapstructure:"name_separator"`
	DefaultTopN   int      `mapstructure:"default_top_n"`
}

// AuthConfig is the static credential table, username to bcrypt hash.
// An empty table disables authentication.
type AuthConfig struct {
	Users map[string]string `mapstructure:"users"`
}

// LogConfig overrides the environment's default log level
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pharmalens/")

	// PHARMALENS_STORE_PATH -> store.path
	v.SetEnvPrefix("PHARMALENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load(".env")
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Store defaults
	v.SetDefault("store.path", "data/all_pharma.db")
	v.SetDefault("store.products_table", "products")
	v.SetDefault("store.create_if_missing", false)
	v.SetDefault("store.busy_timeout", "5s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 300)

	// Pipeline defaults
	v.SetDefault("pipeline.sentinel", "Unspecified")
	v.SetDefault("pipeline.capitalize", []string{"category", "form", "manufacturer", "indication", "nomenclature"})
	v.SetDefault("pipeline.other_label", "Other")
	v.SetDefault("pipeline.name_separator", ", ")
	v.SetDefault("pipeline.default_top_n", 10)

	v.SetDefault("auth.users", map[string]string{})
	v.SetDefault("log.level", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if strings.TrimSpace(config.Store.Path) == "" {
		return fmt.Errorf("store path is required (set PHARMALENS_STORE_PATH)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("rate limit per IP cannot be negative, got: %d", config.RateLimit.PerIP)
	}

	if config.Pipeline.DefaultTopN < 0 {
		return fmt.Errorf("pipeline default_top_n cannot be negative, got: %d", config.Pipeline.DefaultTopN)
	}

	for _, name := range config.Pipeline.Capitalize {
		f, err := domain.ParseField(name)
		if err != nil {
			return fmt.Errorf("pipeline capitalize: %w", err)
		}
		if f == domain.FieldName || f == domain.FieldPrice {
			return fmt.Errorf("pipeline capitalize: field %q cannot be re-cased", name)
		}
	}

	for user, hash := range config.Auth.Users {
		if !strings.HasPrefix(hash, "$2") {
			return fmt.Errorf("auth user %q: password must be a bcrypt hash", user)
		}
	}

	return nil
}

// CapitalizeFields returns the validated capitalisation whitelist
func (p PipelineConfig) CapitalizeFields() []domain.Field {
	fields := make([]domain.Field, 0, len(p.Capitalize))
	for _, name := range p.Capitalize {
		if f, err := domain.ParseField(name); err == nil {
			fields = append(fields, f)
		}
	}
	return fields
}
