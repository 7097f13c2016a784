package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/logger"
	"github.com/andy/invoicer/internal/money"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// INVOICER_INVOICE_TAX_RATE or INVOICER_LOG_LEVEL.
const EnvPrefix = "INVOICER"

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`

	// Invoice settings
	Invoice InvoiceConfig `yaml:"invoice" envconfig:"INVOICE"`

	// Display currency
	Currency money.FormatConfig `yaml:"currency" envconfig:"CURRENCY"`

	Log logger.Config `yaml:"log" envconfig:"LOG"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" envconfig:"PATH"` // Path to SQLite database
}

type InvoiceConfig struct {
	TaxRate         string `yaml:"tax_rate" envconfig:"TAX_RATE"`                 // Tax rate as decimal ("0.20" = 20%)
	NumberPrefix    string `yaml:"number_prefix" envconfig:"NUMBER_PREFIX"`       // Invoice number prefix (e.g., "FAC")
	StrictReconcile bool   `yaml:"strict_reconcile" envconfig:"STRICT_RECONCILE"` // Reject edits referencing unknown line IDs
}

// Rate parses TaxRate. An empty value means the default rate.
func (c InvoiceConfig) Rate() (decimal.Decimal, error) {
	if c.TaxRate == "" {
		return domain.DefaultTaxRate, nil
	}
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", c.TaxRate, err)
	}
	if err := domain.CheckTaxRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// DefaultConfigPath returns ~/.config/invoicer/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		homeDir = "."
	}
	return filepath.Join(homeDir, ".config", "invoicer")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(configDir(), "invoicer.db"),
		},
		Invoice: InvoiceConfig{
			TaxRate:      domain.DefaultTaxRate.String(),
			NumberPrefix: domain.DefaultNumberPrefix,
		},
		Currency: money.Ariary(),
		Log:      logger.DefaultConfig(),
	}
}

// Load reads config from path (defaults when the file doesn't exist), then
// applies INVOICER_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// Validate checks values that would otherwise fail deep inside a service call.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if _, err := c.Invoice.Rate(); err != nil {
		return err
	}
	if c.Invoice.NumberPrefix == "" {
		return fmt.Errorf("invoice.number_prefix must be set")
	}
	if c.Currency.Decimals < 0 {
		return fmt.Errorf("currency.decimals must not be negative")
	}
	return nil
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates the database directory
func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(filepath.Dir(c.Database.Path), 0755)
}
