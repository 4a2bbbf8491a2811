package mongodb

import (
	"errors"
	"testing"
)

func TestResolveConfigUnset(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_DB", "")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Enabled() {
		t.Fatalf("empty config should be disabled")
	}
}

func TestResolveConfigMissingDatabase(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB", "")

	_, err := ResolveConfigFromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ConfigErrorMissingDatabase {
		t.Fatalf("want ConfigError(missing_database), got %v", err)
	}
}

func TestResolveConfigEnabled(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB", "datavault")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !cfg.Enabled() {
		t.Fatalf("want enabled config, got %+v", cfg)
	}
}
