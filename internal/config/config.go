package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioBucket       string
	MinioRegion       string
	MinioUseSSL       bool
	UploadMaxMB       int
	InvalidKeyPattern string
	KeyReplacement    string
	ProgressCacheTTL  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SGA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SGA API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("minio.bucket", "sga-documents")
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("upload.max_mb", 25)
	v.SetDefault("progress.cache_ttl", "1m")

	ttlString := v.GetString("progress.cache_ttl")
	if ttlString == "" {
		ttlString = "1m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		MinioEndpoint:     v.GetString("minio.endpoint"),
		MinioAccessKey:    v.GetString("minio.access_key"),
		MinioSecretKey:    v.GetString("minio.secret_key"),
		MinioBucket:       v.GetString("minio.bucket"),
		MinioRegion:       v.GetString("minio.region"),
		MinioUseSSL:       v.GetBool("minio.use_ssl"),
		UploadMaxMB:       v.GetInt("upload.max_mb"),
		InvalidKeyPattern: v.GetString("storage.invalid_key_pattern"),
		KeyReplacement:    v.GetString("storage.key_replacement"),
		ProgressCacheTTL:  ttl,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 25
	}

	return cfg, nil
}
