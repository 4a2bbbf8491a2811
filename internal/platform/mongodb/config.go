package mongodb

import (
	"strings"

	"github.com/yungbote/datavault-backend/internal/platform/envutil"
)

type Config struct {
	URI      string
	Database string
}

type ConfigErrorCode string

const (
	ConfigErrorMissingDatabase ConfigErrorCode = "missing_database"
	ConfigErrorMissingURI      ConfigErrorCode = "missing_uri"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid mongodb config"
	}
	switch e.Code {
	case ConfigErrorMissingDatabase:
		return "MONGO_DB is required when MONGO_URI is set"
	case ConfigErrorMissingURI:
		return "MONGO_URI is required when MONGO_DB is set"
	default:
		return "invalid mongodb config"
	}
}

// ResolveConfigFromEnv reads MONGO_URI and MONGO_DB. Both empty means
// the document store is simply not configured; Enabled() reports that.
func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		URI:      envutil.String("MONGO_URI", ""),
		Database: envutil.String("MONGO_DB", ""),
	}
	if cfg.URI != "" && strings.TrimSpace(cfg.Database) == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingDatabase}
	}
	if cfg.Database != "" && strings.TrimSpace(cfg.URI) == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingURI}
	}
	return cfg, nil
}

func (c Config) Enabled() bool { return c.URI != "" && c.Database != "" }
