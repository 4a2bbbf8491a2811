package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/datavault-backend/internal/platform/envutil"
)

type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidPort ConfigErrorCode = "invalid_port"
	ConfigErrorMissingHost ConfigErrorCode = "missing_host"
	ConfigErrorMissingName ConfigErrorCode = "missing_database"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid postgres config"
	}
	switch e.Code {
	case ConfigErrorInvalidPort:
		return fmt.Sprintf("invalid DB_PORT=%q; expected positive integer", e.Value)
	case ConfigErrorMissingHost:
		return "DB_HOST is required"
	case ConfigErrorMissingName:
		return "DB_NAME is required"
	default:
		return "invalid postgres config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfigFromEnv reads DB_* variables with the historical
// fallbacks DB_DATABASE and DB_PASS. Defaults suit a local
// development database.
func ResolveConfigFromEnv() (Config, error) {
	rawPort := envutil.String("DB_PORT", "5432")
	port, err := strconv.Atoi(strings.TrimSpace(rawPort))
	if err != nil || port <= 0 {
		return Config{}, &ConfigError{Code: ConfigErrorInvalidPort, Value: rawPort, Cause: err}
	}

	cfg := Config{
		Host:     envutil.String("DB_HOST", "localhost"),
		Port:     port,
		Database: envutil.First("datavault", "DB_NAME", "DB_DATABASE"),
		User:     envutil.String("DB_USER", "postgres"),
		Password: envutil.First("", "DB_PASSWORD", "DB_PASS"),
		SSLMode:  envutil.String("DB_SSLMODE", "disable"),
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return &ConfigError{Code: ConfigErrorMissingHost}
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return &ConfigError{Code: ConfigErrorMissingName}
	}
	if cfg.Port <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidPort, Value: strconv.Itoa(cfg.Port)}
	}
	return nil
}
