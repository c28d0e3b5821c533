// Package config loads the service configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"fileintake/internal/pkg/validator"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	AppEnv      string        `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080" validate:"required"`
	DatabaseURL string        `env:"DATABASE_URL" envDefault:"fileintake.db" validate:"required"`
	JWTSecret   string        `env:"JWT_SECRET" envDefault:"change-me-jwt-secret"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h" validate:"gt=0"`
	CORSOrigins string        `env:"CORS_ORIGINS"`

	Upload UploadConfig
	S3     S3Config
}

type UploadConfig struct {
	BasePath          string   `env:"UPLOAD_BASE_PATH" envDefault:"./uploads" validate:"required"`
	StagingDir        string   `env:"UPLOAD_STAGING_DIR"`
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" envDefault:"jpg,jpeg,png,gif,pdf" envSeparator:","`
	WebUser           string   `env:"UPLOAD_WEB_USER" envDefault:"www-data"`
	WebGroup          string   `env:"UPLOAD_WEB_GROUP" envDefault:"www-data"`
	MaxFileSize       int64    `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"52428800" validate:"gt=0"`
	StaticURL         string   `env:"UPLOAD_STATIC_URL" envDefault:"/static/uploads" validate:"required,startswith=/"`
}

// S3Config configures the bucket mirror. An empty Bucket disables it.
type S3Config struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT" validate:"omitempty,url"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	ForcePathStyle  bool   `env:"S3_FORCE_PATH_STYLE"`
	Prefix          string `env:"S3_PREFIX"`
}

func (c S3Config) Enabled() bool { return c.Bucket != "" }

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return Parse(nil)
}

// Parse builds the config from the process environment, or from environ
// when it is non-nil.
func Parse(environ map[string]string) (*Config, error) {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}

	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.Upload.AllowedExtensions = cleanExtensions(cfg.Upload.AllowedExtensions)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool { return isProdLike(c.AppEnv) }

func validateConfig(cfg *Config) error {
	if err := validator.Error(cfg); err != nil {
		return err
	}
	if cfg.S3.Enabled() && (cfg.S3.AccessKeyID == "") != (cfg.S3.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

func cleanExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, ext := range in {
		ext = strings.Trim(strings.TrimSpace(ext), ".")
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
