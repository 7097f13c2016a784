package app

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/crypto"
	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/logger"
	"github.com/andy/invoicer/internal/repository"
	"github.com/andy/invoicer/internal/service"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB
	Log    *zap.Logger

	// Repositories
	ClientRepo  repository.ClientRepository
	InvoiceRepo repository.InvoiceRepository

	// Services
	ClientService  service.ClientService
	InvoiceService service.InvoiceService
	StatsService   service.StatsService
}

// New loads the default config and builds the App
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig builds the App from cfg, asking for a database password on
// first run when the keyring has none.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	keyring := crypto.NewKeyring()

	password, err := keyring.GetKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Setting up database encryption for the first time...")
		password, err = promptForPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to set password: %w", err)
		}

		if err := keyring.SetKey(password); err != nil {
			return nil, fmt.Errorf("failed to store encryption key: %w", err)
		}
	}

	return Open(ctx, cfg, password)
}

// Open builds the App with an explicit database password
func Open(ctx context.Context, cfg *config.Config, password string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	rate, err := cfg.Invoice.Rate()
	if err != nil {
		database.Close()
		return nil, err
	}

	clientRepo := repository.NewClientRepo(database)
	invoiceRepo := repository.NewInvoiceRepo(database)

	invoiceService, err := service.NewInvoiceService(database, invoiceRepo, clientRepo, service.InvoiceOptions{
		TaxRate:         rate,
		NumberPrefix:    cfg.Invoice.NumberPrefix,
		StrictReconcile: cfg.Invoice.StrictReconcile,
	}, log)
	if err != nil {
		database.Close()
		return nil, err
	}

	log.Debug("application ready",
		zap.String("database", cfg.Database.Path),
		zap.Stringer("tax_rate", rate),
	)

	return &App{
		Config:         cfg,
		DB:             database,
		Log:            log,
		ClientRepo:     clientRepo,
		InvoiceRepo:    invoiceRepo,
		ClientService:  service.NewClientService(database, clientRepo, invoiceRepo, log),
		InvoiceService: invoiceService,
		StatsService:   service.NewStatsService(database, clientRepo, invoiceRepo, log),
	}, nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// promptForPassword prompts user for a new database password (first run)
func promptForPassword() (string, error) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Your clients and invoices will be encrypted with a password.")
	fmt.Fprintln(os.Stderr, "This password will be stored in your system keyring when one is available.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, "Enter a password for database encryption: ")

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Fprintln(os.Stderr, "✓ Database encryption configured")
	fmt.Fprintln(os.Stderr)

	return string(password), nil
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}
