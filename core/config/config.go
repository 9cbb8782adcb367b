package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gas-market/core/database"
	"gas-market/core/logger"
	"gas-market/core/reconcile"
	"gas-market/core/security"
	"gas-market/core/server"
	"gas-market/core/storage"
	"gas-market/core/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (MinIO) used to archive files.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Auth holds token signing and bootstrap admin settings.
	Auth security.Config `mapstructure:"auth"`
	// Upload holds text file ingestion settings.
	Upload UploadConfig `mapstructure:"upload"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	var errs []error

	if !c.Database.IsValidDriver() {
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if _, err := c.Server.Location(); err != nil {
		errs = append(errs, fmt.Errorf("server.timezone: %w", err))
	}
	if f := c.Log.Format; f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("log.format: must be json or console, got %q", f))
	}
	if _, err := reconcile.ParseStrategy(c.Upload.DefaultStrategy); err != nil {
		errs = append(errs, fmt.Errorf("upload.default_strategy: %w", err))
	}
	for _, name := range c.Upload.Encodings {
		if _, err := utils.LookupCharset(name); err != nil {
			errs = append(errs, fmt.Errorf("upload.encodings: %w", err))
		}
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes: must be positive"))
	}

	return errors.Join(errs...)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
