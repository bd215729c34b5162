// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
}

// StoreConfig holds document-store connection settings
type StoreConfig struct {
	URI  string
	Name string
}

// BlobConfig holds the unsigned-preset upload endpoint for media
type BlobConfig struct {
	UploadURL string
	Preset    string
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Store          *StoreConfig
	Blob           *BlobConfig
	AllowedOrigins []string
	TypingTimeout  time.Duration
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env from the usual locations; silently continue when
	// none exists.
	envLocations := []string{
		".env",
		"../../.env",
	}
	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		_ = godotenv.Load()
	}

	serverConfig := DefaultConfig()
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			serverConfig.Port = port
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}
	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	storeConfig := &StoreConfig{
		URI:  getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		Name: getEnvOrDefault("DB_NAME", "firechat"),
	}

	blobConfig := &BlobConfig{
		UploadURL: os.Getenv("BLOB_UPLOAD_URL"),
		Preset:    os.Getenv("BLOB_UPLOAD_PRESET"),
	}

	cfg := &Config{
		Server:         serverConfig,
		Store:          storeConfig,
		Blob:           blobConfig,
		AllowedOrigins: []string{"*"},
		TypingTimeout:  2 * time.Second,
		Debug:          os.Getenv("DEBUG") == "true",
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	if ms := os.Getenv("TYPING_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.TypingTimeout = time.Duration(v) * time.Millisecond
		}
	}

	return cfg, nil
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
