package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pocketledger/pocketledger/internal/domain/account"
	accounthandler "github.com/pocketledger/pocketledger/internal/domain/account/handler"
	"github.com/pocketledger/pocketledger/internal/domain/category"
	categoryhandler "github.com/pocketledger/pocketledger/internal/domain/category/handler"
	importhandler "github.com/pocketledger/pocketledger/internal/domain/import/handler"
	"github.com/pocketledger/pocketledger/internal/domain/import/importer"
	"github.com/pocketledger/pocketledger/internal/domain/summary"
	summaryhandler "github.com/pocketledger/pocketledger/internal/domain/summary/handler"
	"github.com/pocketledger/pocketledger/internal/domain/transaction"
	transactionhandler "github.com/pocketledger/pocketledger/internal/domain/transaction/handler"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/config"
	"github.com/pocketledger/pocketledger/pkg/db"
	"github.com/pocketledger/pocketledger/pkg/metrics"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Repositories
	AccountRepo     account.Repository
	CategoryRepo    category.Repository
	TransactionRepo transaction.Repository
	SummaryRepo     summary.Repository

	// Services
	Verifier           *auth.Verifier
	AccountService     *account.Service
	CategoryService    *category.Service
	TransactionService *transaction.Service
	SummaryService     *summary.Service
	ImportService      *importer.Service

	// Handlers
	AccountHandler     *accounthandler.AccountHandler
	CategoryHandler    *categoryhandler.CategoryHandler
	TransactionHandler *transactionhandler.TransactionHandler
	SummaryHandler     *summaryhandler.SummaryHandler
	ImportHandler      *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	deps.initRepositories()
	deps.initServices()
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.Connect(ctx, &d.Config.Database)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.Migrate(ctx, d.Logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() {
	d.AccountRepo = account.NewPostgresRepository(d.DB.Pool)
	d.CategoryRepo = category.NewPostgresRepository(d.DB.Pool)
	d.TransactionRepo = transaction.NewPostgresRepository(d.DB.Pool)
	d.SummaryRepo = summary.NewPostgresRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() {
	d.Verifier = auth.NewVerifier(d.Config.Auth.JWTSecret)

	d.AccountService = account.NewService(d.AccountRepo, d.Logger)
	d.CategoryService = category.NewService(d.CategoryRepo, d.Logger)
	d.TransactionService = transaction.NewService(d.TransactionRepo, d.AccountRepo, d.CategoryRepo, d.Logger)
	d.SummaryService = summary.NewService(d.SummaryRepo, d.Logger)
	d.ImportService = importer.NewService(
		d.AccountService,
		d.CategoryService,
		d.TransactionRepo,
		d.Config.Import,
		d.Metrics,
		d.Logger,
	)

	d.Logger.Info("services initialized")
}

func (d *Dependencies) initHandlers() {
	d.AccountHandler = accounthandler.NewAccountHandler(d.AccountService, d.Logger)
	d.CategoryHandler = categoryhandler.NewCategoryHandler(d.CategoryService, d.Logger)
	d.TransactionHandler = transactionhandler.NewTransactionHandler(d.TransactionService, d.Config.Currency, d.Logger)
	d.SummaryHandler = summaryhandler.NewSummaryHandler(d.SummaryService, d.Logger)
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Config.Import.MaxFileBytes, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
