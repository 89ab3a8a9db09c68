// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"` // HMAC secret for host-issued bearer tokens
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // payment-method cache TTL
}

type PayloadConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CheckoutConfig struct {
	// ReturnURL is the host page shoppers land on after a successful payment;
	// the order id is appended as a query parameter.
	ReturnURL string `yaml:"return_url"`
	// PaymentMethodsURL is the host's saved-cards account page.
	PaymentMethodsURL string        `yaml:"payment_methods_url"`
	LockTTL           time.Duration `yaml:"lock_ttl"` // per-order checkout lock
}

type RenewalConfig struct {
	Interval  time.Duration `yaml:"interval"` // how often to scan for due renewals
	BatchSize int           `yaml:"batch_size"`
}

type NotifyConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	ChatID        int64  `yaml:"chat_id"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 16/24/32 bytes, encrypts stored method ids
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payload  PayloadConfig  `yaml:"payload"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Renewal  RenewalConfig  `yaml:"renewal"`
	Notify   NotifyConfig   `yaml:"notify"`
	Security SecurityConfig `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Payload.BaseURL == "" {
		cfg.Payload.BaseURL = "https://api.payload.com"
	}
	if cfg.Payload.Timeout <= 0 {
		cfg.Payload.Timeout = 15 * time.Second
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	if cfg.Checkout.LockTTL <= 0 {
		cfg.Checkout.LockTTL = 30 * time.Second
	}
	if cfg.Renewal.Interval <= 0 {
		cfg.Renewal.Interval = time.Minute
	}
	if cfg.Renewal.BatchSize <= 0 {
		cfg.Renewal.BatchSize = 100
	}

	// Minimal validation
	if cfg.Payload.APIKey == "" {
		return nil, errors.New("payload.api_key is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
