package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server      Server      `mapstructure:"server"`
	Storage     Storage     `mapstructure:"storage"`
	Auth        Auth        `mapstructure:"auth"`
	Attachments Attachments `mapstructure:"attachments"`
	Logger      Logger      `mapstructure:"logger"`
}

// Server holds the configuration for the HTTP server.
type Server struct {
	Port   int    `mapstructure:"port"`
	WebDir string `mapstructure:"web_dir"`
}

// Storage selects and configures the trade store backend.
type Storage struct {
	Backend string `mapstructure:"backend"` // "file" or "sqlite"
	Path    string `mapstructure:"path"`    // file backend: path to the trades document
	DSN     string `mapstructure:"dsn"`     // sqlite backend
}

// Auth configures the bearer-credential check. Enabled is resolved once at
// startup; the API layer never probes for an identity provider per request.
type Auth struct {
	Enabled        bool   `mapstructure:"enabled"`
	Mode           string `mapstructure:"mode"` // "static" or "remote"
	VerifyURL      string `mapstructure:"verify_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Attachments configures the external object-storage collaborator.
type Attachments struct {
	Enabled        bool   `mapstructure:"enabled"`
	UploadURL      string `mapstructure:"upload_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBytes       int64  `mapstructure:"max_bytes"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables. A
// missing config file is fine; defaults and the environment take over. A
// present-but-unreadable file is a startup error.
func LoadConfig(path string) (config Config, err error) {
	// Optional .env file for local development; ignored when absent.
	_ = godotenv.Load()

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.web_dir", "")
	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.path", "trades.json")
	viper.SetDefault("storage.dsn", "trades.db")
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.mode", "static")
	viper.SetDefault("auth.timeout_seconds", 5)
	viper.SetDefault("attachments.enabled", false)
	viper.SetDefault("attachments.timeout_seconds", 10)
	viper.SetDefault("attachments.max_bytes", 10<<20)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	if err = viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
