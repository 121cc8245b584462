// Package config provides configuration loading for the storefront
// checkout module and its reference server.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration. Every field has a default; a
// config file and environment variables override it.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Checkout CheckoutConfig `yaml:"checkout"`
}

// ServerConfig configures the reference backend server.
type ServerConfig struct {
	// Addr is the listen address (default :8080).
	Addr string `yaml:"addr"`
	// MySQLDSN enables MySQL order persistence; empty runs in-memory.
	MySQLDSN string `yaml:"mysql_dsn"`
}

// BackendConfig configures the checkout client.
type BackendConfig struct {
	// BaseURL is the storefront API root.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each API call.
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig configures the Redis-backed session store. An empty Addr
// selects the in-memory store.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	// Namespace scopes storage keys, typically a session id.
	Namespace string `yaml:"namespace"`
}

// StripeConfig configures the payment processor. An empty SecretKey
// selects the local development processor.
type StripeConfig struct {
	SecretKey      string `yaml:"secret_key"`
	PublishableKey string `yaml:"publishable_key"`
	// PaymentMethod is attached on headless confirms (e.g. pm_card_visa).
	PaymentMethod string `yaml:"payment_method"`
}

// CheckoutConfig tunes the orchestrator.
type CheckoutConfig struct {
	Currency string `yaml:"currency"`
	// TaxRate must match the backend's rate so displayed totals equal
	// charged totals.
	TaxRate   float64 `yaml:"tax_rate"`
	ReturnURL string  `yaml:"return_url"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 15 * time.Second,
		},
		Checkout: CheckoutConfig{
			Currency:  "usd",
			TaxRate:   0.08,
			ReturnURL: "http://localhost:3000/order-success",
		},
	}
}

// Load reads the optional config file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STOREFRONT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STOREFRONT_MYSQL_DSN"); v != "" {
		c.Server.MySQLDSN = v
	}
	if v := os.Getenv("STOREFRONT_API_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("STOREFRONT_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		c.Stripe.SecretKey = v
	}
	if v := os.Getenv("STRIPE_PUBLISHABLE_KEY"); v != "" {
		c.Stripe.PublishableKey = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Checkout.Currency == "" {
		return fmt.Errorf("checkout.currency is required")
	}
	if c.Checkout.TaxRate < 0 || c.Checkout.TaxRate >= 1 {
		return fmt.Errorf("checkout.tax_rate must be in [0, 1)")
	}
	return nil
}
