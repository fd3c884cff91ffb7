package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "FOODGRAM_CONFIG"

var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/foodgram/config.yaml",
}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Jobs      JobsConfig      `koanf:"jobs"`
	RecipeAPI RecipeAPIConfig `koanf:"recipe_api"`
	Redis     RedisConfig     `koanf:"redis"`
}

type ServerConfig struct {
	Port          string   `koanf:"port" validate:"required"`
	PublicBaseURL string   `koanf:"public_base_url" validate:"required,url"`
	CORSOrigins   []string `koanf:"cors_origins"`
	MediaDir      string   `koanf:"media_dir"`
	LogMode       string   `koanf:"log_mode" validate:"oneof=development production test"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver" validate:"oneof=postgres sqlite"`
	Host     string `koanf:"host" validate:"required_if=Driver postgres"`
	Port     string `koanf:"port" validate:"required_if=Driver postgres"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name" validate:"required_if=Driver postgres"`
	Path     string `koanf:"path" validate:"required_if=Driver sqlite"`
}

type AuthConfig struct {
	JWTSecretKey   string        `koanf:"jwt_secret_key" validate:"required,min=8"`
	AccessTokenTTL time.Duration `koanf:"access_token_ttl" validate:"gt=0"`
}

const (
	JobsBackendDB       = "db"
	JobsBackendTemporal = "temporal"
)

type JobsConfig struct {
	// Backend is "db" (polling worker) or "temporal".
	Backend      string        `koanf:"backend" validate:"oneof=db temporal"`
	Workers      int           `koanf:"workers" validate:"min=1,max=64"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gt=0"`
	MaxAttempts  int           `koanf:"max_attempts" validate:"min=1"`
	RetryDelay   time.Duration `koanf:"retry_delay" validate:"gte=0"`
	StaleRunning time.Duration `koanf:"stale_running" validate:"gt=0"`
}

type RecipeAPIConfig struct {
	MealDBBaseURL     string        `koanf:"mealdb_base_url" validate:"required,url"`
	MealDBAPIKey      string        `koanf:"mealdb_api_key"`
	CocktailDBBaseURL string        `koanf:"cocktaildb_base_url" validate:"required,url"`
	CocktailDBAPIKey  string        `koanf:"cocktaildb_api_key"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RatePerSecond     float64       `koanf:"rate_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"min=1"`
}

type RedisConfig struct {
	Addr    string `koanf:"addr"`
	Channel string `koanf:"channel"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			PublicBaseURL: "http://localhost:8080",
			MediaDir:      "media",
			LogMode:       "development",
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			Host:   "localhost",
			Port:   "5432",
			User:   "postgres",
			Name:   "foodgram",
			Path:   "foodgram.db",
		},
		Auth: AuthConfig{
			JWTSecretKey:   "defaultsecret",
			AccessTokenTTL: 30 * 24 * time.Hour,
		},
		Jobs: JobsConfig{
			Backend:      "db",
			Workers:      2,
			PollInterval: time.Second,
			MaxAttempts:  4,
			RetryDelay:   5 * time.Second,
			StaleRunning: 2 * time.Minute,
		},
		RecipeAPI: RecipeAPIConfig{
			MealDBBaseURL:     "https://www.themealdb.com",
			MealDBAPIKey:      "1",
			CocktailDBBaseURL: "https://www.thecocktaildb.com",
			CocktailDBAPIKey:  "1",
			Timeout:           10 * time.Second,
			RatePerSecond:     2,
			Burst:             4,
		},
		Redis: RedisConfig{
			Channel: "foodgram.jobs",
		},
	}
}

// LoadConfig layers struct defaults, an optional YAML file and environment
// variables, in that order, and validates the result.
func LoadConfig() (*Config, error) {
	return loadConfig(findConfigFile())
}

func loadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitCommaList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func findConfigFile() string {
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitCommaList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

var envMappings = map[string]string{
	"port":                "server.port",
	"public_base_url":     "server.public_base_url",
	"cors_origins":        "server.cors_origins",
	"media_dir":           "server.media_dir",
	"log_mode":            "server.log_mode",
	"db_driver":           "database.driver",
	"db_host":             "database.host",
	"db_port":             "database.port",
	"postgres_user":       "database.user",
	"postgres_password":   "database.password",
	"postgres_db":         "database.name",
	"sqlite_path":         "database.path",
	"jwt_secret_key":      "auth.jwt_secret_key",
	"access_token_ttl":    "auth.access_token_ttl",
	"jobs_backend":        "jobs.backend",
	"jobs_workers":        "jobs.workers",
	"jobs_poll_interval":  "jobs.poll_interval",
	"jobs_max_attempts":   "jobs.max_attempts",
	"jobs_retry_delay":    "jobs.retry_delay",
	"mealdb_base_url":     "recipe_api.mealdb_base_url",
	"mealdb_api_key":      "recipe_api.mealdb_api_key",
	"apimealdb":           "recipe_api.mealdb_api_key",
	"cocktaildb_base_url": "recipe_api.cocktaildb_base_url",
	"cocktaildb_api_key":  "recipe_api.cocktaildb_api_key",
	"apicocktaildb":       "recipe_api.cocktaildb_api_key",
	"recipe_api_timeout":  "recipe_api.timeout",
	"redis_addr":          "redis.addr",
	"redis_channel":       "redis.channel",
}

// envTransformFunc maps known environment variables onto config paths and
// drops everything else.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
