// Copyright 2024 Adaptive Card Engine Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for the Adaptive Card
// Engine. It handles loading and validation of configuration from files and
// environment variables using Viper, with support for asset resolution,
// the catalog registry, and the HTTP front door.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	// DefaultAssetBase is the default directory the asset resolver searches.
	DefaultAssetBase = "assets"
	// DefaultCatalogDBPath is the default SQLite path for the catalog registry.
	DefaultCatalogDBPath = "./catalog.db"
	// DefaultServerPort is the default HTTP port for the `serve` subcommand.
	DefaultServerPort = 8080

	// MaskedValueMinLength is the minimum length for masking config values when displaying them.
	MaskedValueMinLength = 8
	// MaskedValueKeepChars defines how many characters to keep visible when masking config values.
	MaskedValueKeepChars = 8
)

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing.
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid.
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete application configuration.
type Config struct {
	Resolver ResolverConfig `mapstructure:"resolver"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

// ResolverConfig contains asset-resolution configuration.
type ResolverConfig struct {
	AssetBase     string `mapstructure:"asset_base"`
	AssetRegistry string `mapstructure:"asset_registry"`
	CatalogFile   string `mapstructure:"catalog_file"`
	Sandbox       bool   `mapstructure:"sandbox"`
}

// CatalogConfig contains the SQLite-backed catalog registry configuration.
type CatalogConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig contains HTTP front-door configuration.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WebhookConfig contains optional inbound webhook signature validation.
type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading.
type LoadOptions struct {
	ConfigPath       string
	EnableHotReload  bool
	ValidateRequired bool
	TestMode         bool // Skip validation for CI/CD testing
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", opts.ConfigPath)
		}
		v.SetConfigFile(opts.ConfigPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CARD_ENGINE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if opts.ValidateRequired && !opts.TestMode {
		if err := validateConfig(&config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("resolver.asset_base", DefaultAssetBase)
	v.SetDefault("resolver.sandbox", false)
	v.SetDefault("catalog.db_path", DefaultCatalogDBPath)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// setEnvironmentMappings sets explicit environment variable mappings, including
// the ADAPTIVE_CARD_* variables that take precedence regardless of the
// CARD_ENGINE_ env prefix used for ambient settings.
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"ADAPTIVE_CARD_ASSET_BASE":     "resolver.asset_base",
		"ADAPTIVE_CARD_ASSET_REGISTRY": "resolver.asset_registry",
		"ADAPTIVE_CARD_CATALOG_FILE":   "resolver.catalog_file",
		"CARD_ENGINE_SANDBOX":          "resolver.sandbox",
		"CARD_ENGINE_CATALOG_DB":       "catalog.db_path",
		"CARD_ENGINE_PORT":             "server.port",
		"CARD_ENGINE_LOG_LEVEL":        "logging.level",
		"CARD_ENGINE_LOG_FORMAT":       "logging.format",
		"CARD_ENGINE_WEBHOOK_SECRET":   "webhook.secret", // pragma: allowlist secret
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for required fields and valid values.
func validateConfig(config *Config) error {
	var errs []ValidationError

	if config.Catalog.DBPath == "" {
		errs = append(errs, ValidationError{
			Field:   "catalog.db_path",
			Message: "catalog database path is required",
		})
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "console"}
	if !contains(validLogFormats, config.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if len(errs) > 0 {
		var errorMessages []string
		for _, err := range errs {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked.
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c
	if masked.Webhook.Secret != "" {
		masked.Webhook.Secret = maskValue(masked.Webhook.Secret)
	}
	return &masked
}

// maskValue masks sensitive values, showing only the first few characters.
func maskValue(value string) string {
	if len(value) <= MaskedValueMinLength {
		return strings.Repeat("*", len(value))
	}
	return value[:MaskedValueKeepChars] + strings.Repeat("*", len(value)-MaskedValueKeepChars)
}

// contains checks if a slice contains a specific string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// WatchConfig enables configuration hot-reloading for development.
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		config, err := LoadWithOptions(LoadOptions{ConfigPath: configPath, ValidateRequired: true})
		if err != nil {
			return
		}
		callback(config)
	})

	return nil
}
