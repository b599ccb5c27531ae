package config

import (
	"fmt"
	"os"
	"time"

	"payu-adapter/internal/payment/payu"

	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
)

const (
	defaultPayUMode    = "sandbox"
	defaultHTTPTimeout = 15 * time.Second
	defaultAppPort     = "8080"
)

type Config struct {
	AppEnv  string
	AppPort string `validate:"required"`

	DBHost     string `validate:"required"`
	DBUser     string
	DBPassword string
	DBName     string `validate:"required"`
	DBPort     string `validate:"required"`

	// SecretKey signs the JWTs host systems present to the checkout API.
	SecretKey string `validate:"required"`

	PayU PayUConfig

	// NotifyBaseURL is the public base the gateway posts notifications to.
	NotifyBaseURL string `validate:"required,url"`
}

type PayUConfig struct {
	Mode              string        `validate:"required,oneof=sandbox live"`
	PosID             string        `validate:"required"`
	MD5Key            string        `validate:"required"`
	OAuthClientID     string        `validate:"required"`
	OAuthClientSecret string        `validate:"required"`
	HTTPTimeout       time.Duration `validate:"required"`
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        os.Getenv("APP_ENV"),
		AppPort:       getEnv("APP_PORT", defaultAppPort),
		DBHost:        os.Getenv("DB_HOST"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBPort:        os.Getenv("DB_PORT"),
		SecretKey:     os.Getenv("SECRET_KEY"),
		NotifyBaseURL: os.Getenv("NOTIFY_BASE_URL"),
		PayU: PayUConfig{
			Mode:              getEnv("PAYU_MODE", defaultPayUMode),
			PosID:             os.Getenv("PAYU_POS_ID"),
			MD5Key:            os.Getenv("PAYU_MD5_KEY"),
			OAuthClientID:     os.Getenv("PAYU_OAUTH_CLIENT_ID"),
			OAuthClientSecret: os.Getenv("PAYU_OAUTH_CLIENT_SECRET"),
			HTTPTimeout:       defaultHTTPTimeout,
		},
	}

	if raw := os.Getenv("PAYU_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PAYU_HTTP_TIMEOUT %q: %w", raw, err)
		}
		cfg.PayU.HTTPTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// PayUOptions returns the credentials the PayU adapter is built with.
func (c *Config) PayUOptions() payu.Options {
	return payu.Options{
		Mode:              c.PayU.Mode,
		PosID:             c.PayU.PosID,
		MD5Key:            c.PayU.MD5Key,
		OAuthClientID:     c.PayU.OAuthClientID,
		OAuthClientSecret: c.PayU.OAuthClientSecret,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
