package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Jobs.MaxAttempts != 4 || cfg.Jobs.RetryDelay != 5*time.Second {
		t.Fatalf("unexpected job retry defaults: %+v", cfg.Jobs)
	}
	if cfg.RecipeAPI.Timeout != 10*time.Second {
		t.Fatalf("expected 10s fetch timeout, got %s", cfg.RecipeAPI.Timeout)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "database:\n  driver: sqlite\n  path: from-file.db\nserver:\n  port: \"9000\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SQLITE_PATH", "from-env.db")
	t.Setenv("apiMealDB", "secret-key")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("JOBS_RETRY_DELAY", "2s")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "from-env.db" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.RecipeAPI.MealDBAPIKey != "secret-key" {
		t.Fatalf("expected legacy api key env to apply, got %q", cfg.RecipeAPI.MealDBAPIKey)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins: %#v", cfg.Server.CORSOrigins)
	}
	if cfg.Jobs.RetryDelay != 2*time.Second {
		t.Fatalf("expected retry delay 2s, got %s", cfg.Jobs.RetryDelay)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("JOBS_BACKEND", "celery")
	if _, err := loadConfig(""); err == nil {
		t.Fatalf("expected validation error for unknown backend")
	}
}
