// Package importer orchestrates the bulk-import pipeline: grid parsing,
// column mapping, row reconciliation and the final batched insert.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/account"
	"github.com/pocketledger/pocketledger/internal/domain/category"
	"github.com/pocketledger/pocketledger/internal/domain/import/grid"
	"github.com/pocketledger/pocketledger/internal/domain/import/mapper"
	"github.com/pocketledger/pocketledger/internal/domain/import/reconcile"
	"github.com/pocketledger/pocketledger/internal/domain/transaction"
	"github.com/pocketledger/pocketledger/pkg/auth"
	"github.com/pocketledger/pocketledger/pkg/config"
	"github.com/pocketledger/pocketledger/pkg/metrics"
)

// Service runs the import pipeline end to end. The reconciled batch lands
// through a single bulk insert: the whole batch is accepted or the caller
// gets an error and re-attempts the import.
type Service struct {
	accounts     *account.Service
	categories   *category.Service
	transactions transaction.Repository
	cfg          config.ImportConfig
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewService creates a new import service
func NewService(
	accounts *account.Service,
	categories *category.Service,
	transactions transaction.Repository,
	cfg config.ImportConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts:     accounts,
		categories:   categories,
		transactions: transactions,
		cfg:          cfg,
		metrics:      m,
		logger:       logger,
	}
}

// Analysis is the preview returned before the user confirms a mapping
type Analysis struct {
	Headers   []string             `json:"headers"`
	Rows      [][]string           `json:"rows"`
	TotalRows int                  `json:"totalRows"`
	Suggested map[int]mapper.Field `json:"suggestedMapping"`
	// Auto is set when the file's own headers already named the semantic
	// fields, so Suggested is exact rather than fuzzy.
	Auto bool `json:"auto"`
}

// Outcome reports what one import did
type Outcome struct {
	CreatedTransactions int      `json:"createdTransactions"`
	CreatedAccounts     int      `json:"createdAccounts"`
	CreatedCategories   int      `json:"createdCategories"`
	Warnings            []string `json:"warnings"`
}

// MappingError rejects an import whose mapping leaves a required field
// uncovered.
type MappingError struct {
	Missing []mapper.Field
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping is missing required fields: %v", e.Missing)
}

// Analyze parses the uploaded file and proposes a column mapping
func (s *Service) Analyze(ctx context.Context, filename string, data []byte) (*Analysis, error) {
	g, err := grid.Parse(filename, data)
	if err != nil {
		return nil, err
	}
	if len(g) == 0 {
		return nil, fmt.Errorf("file contains no rows")
	}

	analysis := &Analysis{
		Headers:   g.Headers(),
		TotalRows: len(g.Rows()),
	}

	preview := g.Rows()
	if len(preview) > s.cfg.PreviewRows {
		preview = preview[:s.cfg.PreviewRows]
	}
	analysis.Rows = preview

	if _, ok := grid.DecodeAuto(data); ok {
		analysis.Auto = true
	}
	suggested := mapper.Suggest(g.Headers())
	analysis.Suggested = suggested.Columns()

	return analysis, nil
}

// Request carries one confirmed import
type Request struct {
	Filename string
	Data     []byte
	Columns  map[int]mapper.Field
	// AccountID is the target for rows without a mapped account column
	AccountID *uuid.UUID
}

// Import runs the confirmed pipeline and submits the batch
func (s *Service) Import(ctx context.Context, identity auth.Identity, req Request) (*Outcome, error) {
	outcome, err := s.runImport(ctx, identity, req)
	if err != nil {
		s.metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	s.metrics.ImportsTotal.WithLabelValues("succeeded").Inc()
	return outcome, nil
}

func (s *Service) runImport(ctx context.Context, identity auth.Identity, req Request) (*Outcome, error) {
	g, err := grid.Parse(req.Filename, req.Data)
	if err != nil {
		return nil, err
	}

	m := mapper.FromColumns(req.Columns)
	if !m.Complete() {
		var missing []mapper.Field
		assigned := make(map[mapper.Field]bool)
		for _, field := range m.Columns() {
			assigned[field] = true
		}
		for _, required := range mapper.RequiredFields {
			if !assigned[required] {
				missing = append(missing, required)
			}
		}
		return nil, &MappingError{Missing: missing}
	}

	reconciler, err := s.newReconciler(ctx, identity, req.AccountID)
	if err != nil {
		return nil, err
	}

	result, err := reconciler.Reconcile(ctx, g, m)
	if err != nil {
		return nil, err
	}
	s.metrics.ImportRowsDropped.Add(float64(len(result.Warnings)))

	txs := make([]*transaction.Transaction, 0, len(result.Payloads))
	for _, p := range result.Payloads {
		txs = append(txs, &transaction.Transaction{
			UserID:      identity.Subject,
			AccountID:   p.AccountID,
			CategoryID:  p.CategoryID,
			AmountMilli: p.AmountMilli,
			Payee:       p.Payee,
			Notes:       p.Notes,
			Date:        p.Date.UTC(),
		})
	}

	if len(txs) > 0 {
		if err := s.transactions.CreateBatch(ctx, txs); err != nil {
			s.metrics.ImportRowsTotal.WithLabelValues("failed").Add(float64(len(txs)))
			return nil, err
		}
	}
	s.metrics.ImportRowsTotal.WithLabelValues("created").Add(float64(len(txs)))

	s.logger.Info("import completed",
		"user", identity.Subject,
		"created", len(txs),
		"dropped", len(result.Warnings),
		"newAccounts", result.CreatedAccounts,
		"newCategories", result.CreatedCategories,
	)

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &Outcome{
		CreatedTransactions: len(txs),
		CreatedAccounts:     result.CreatedAccounts,
		CreatedCategories:   result.CreatedCategories,
		Warnings:            warnings,
	}, nil
}

// newReconciler seeds the per-batch name caches from everything the caller
// already owns.
func (s *Service) newReconciler(ctx context.Context, identity auth.Identity, defaultAccount *uuid.UUID) (*reconcile.Reconciler, error) {
	if defaultAccount != nil {
		if _, err := s.accounts.Get(ctx, identity, *defaultAccount); err != nil {
			return nil, err
		}
	}

	existingAccounts, err := s.accounts.ListAll(ctx, identity)
	if err != nil {
		return nil, err
	}
	accountIDs := make(map[string]uuid.UUID, len(existingAccounts))
	for _, acc := range existingAccounts {
		accountIDs[acc.Name] = acc.ID
	}

	existingCategories, err := s.categories.ListAll(ctx, identity)
	if err != nil {
		return nil, err
	}
	categoryIDs := make(map[string]uuid.UUID, len(existingCategories))
	for _, cat := range existingCategories {
		categoryIDs[cat.Name] = cat.ID
	}

	accountCache := reconcile.NewEntityCache(accountIDs, func(ctx context.Context, name string) (uuid.UUID, error) {
		acc, err := s.accounts.Create(ctx, identity, account.CreateInput{Name: name})
		if err != nil {
			return uuid.Nil, err
		}
		return acc.ID, nil
	})
	categoryCache := reconcile.NewEntityCache(categoryIDs, func(ctx context.Context, name string) (uuid.UUID, error) {
		cat, err := s.categories.Create(ctx, identity, name)
		if err != nil {
			return uuid.Nil, err
		}
		return cat.ID, nil
	})

	return reconcile.New(accountCache, categoryCache, defaultAccount), nil
}
