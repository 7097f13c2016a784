package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Database.Path, cfg.Database.Path)
	assert.Equal(t, "FAC", cfg.Invoice.NumberPrefix)
	assert.Equal(t, "Ar", cfg.Currency.Symbol)

	rate, err := cfg.Invoice.Rate()
	require.NoError(t, err)
	assert.Equal(t, "0.2", rate.String())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/books.db
invoice:
  tax_rate: "0.18"
  strict_reconcile: true
log:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/books.db", cfg.Database.Path)
	assert.Equal(t, "0.18", cfg.Invoice.TaxRate)
	assert.True(t, cfg.Invoice.StrictReconcile)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched sections keep their defaults
	assert.Equal(t, "FAC", cfg.Invoice.NumberPrefix)
	assert.Equal(t, "stderr", cfg.Log.Output)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("invoice:\n  number_prefix: INV\n"), 0644))

	t.Setenv("INVOICER_INVOICE_NUMBER_PREFIX", "FAKT")
	t.Setenv("INVOICER_CURRENCY_SYMBOL", "MGA")
	t.Setenv("INVOICER_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "FAKT", cfg.Invoice.NumberPrefix)
	assert.Equal(t, "MGA", cfg.Currency.Symbol)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_RejectsBadTaxRate(t *testing.T) {
	for _, rate := range []string{"abc", "-0.1"} {
		t.Run(rate, func(t *testing.T) {
			t.Setenv("INVOICER_INVOICE_TAX_RATE", rate)

			_, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Invoice.TaxRate = "0.15"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.15", loaded.Invoice.TaxRate)
	assert.Equal(t, cfg.Currency, loaded.Currency)
}
