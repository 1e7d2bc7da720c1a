// Package reconcile turns a mapped grid into transaction payloads, resolving
// account and category names against the owner's existing records and
// creating missing ones at most once per distinct name per batch.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/import/dates"
	"github.com/pocketledger/pocketledger/internal/domain/import/grid"
	"github.com/pocketledger/pocketledger/internal/domain/import/mapper"
	"github.com/pocketledger/pocketledger/pkg/money"
)

// Payload is one fully-resolved transaction to create. The owner is attached
// at persistence time, not here.
type Payload struct {
	AccountID   uuid.UUID
	CategoryID  *uuid.UUID
	AmountMilli int64
	Payee       string
	Notes       *string
	Date        time.Time
}

// Result is the outcome of reconciling one grid
type Result struct {
	Payloads          []Payload
	Warnings          []string
	CreatedAccounts   int
	CreatedCategories int
}

// ValidationError aborts the whole batch: one row missing a required field
// rejects everything. Row numbers are 1-based over the data rows.
type ValidationError struct {
	Row   int
	Field mapper.Field
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d is missing required field: %s", e.Row, e.Field)
}

// RowError aborts the batch on a row whose data cannot be coerced, such as a
// non-numeric amount. Unparsable dates are warnings, not RowErrors.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// CreateFunc creates a named entity for the owner and returns its id
type CreateFunc func(ctx context.Context, name string) (uuid.UUID, error)

// EntityCache resolves entity names to ids case-insensitively. It is seeded
// once per batch from the owner's existing records; a name that misses is
// created exactly once and cached, so every later row with the same name
// reconciles to the same new entity.
type EntityCache struct {
	ids     map[string]uuid.UUID
	create  CreateFunc
	created int
}

// NewEntityCache builds a cache over existing name→id pairs
func NewEntityCache(existing map[string]uuid.UUID, create CreateFunc) *EntityCache {
	ids := make(map[string]uuid.UUID, len(existing))
	for name, id := range existing {
		ids[strings.ToLower(name)] = id
	}
	return &EntityCache{ids: ids, create: create}
}

// Resolve returns the id for a name, creating the entity on first miss
func (c *EntityCache) Resolve(ctx context.Context, name string) (uuid.UUID, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := c.ids[key]; ok {
		return id, nil
	}

	id, err := c.create(ctx, strings.TrimSpace(name))
	if err != nil {
		return uuid.Nil, err
	}
	c.ids[key] = id
	c.created++
	return id, nil
}

// Created reports how many entities this cache created during the batch
func (c *EntityCache) Created() int {
	return c.created
}

// Reconciler carries the per-batch state for one import
type Reconciler struct {
	accounts   *EntityCache
	categories *EntityCache

	// fallback account when no account column is mapped
	defaultAccount *uuid.UUID
}

// New creates a reconciler. defaultAccount may be nil when an account column
// is mapped; with neither, reconciliation fails.
func New(accounts, categories *EntityCache, defaultAccount *uuid.UUID) *Reconciler {
	return &Reconciler{
		accounts:       accounts,
		categories:     categories,
		defaultAccount: defaultAccount,
	}
}

// Reconcile walks the data rows sequentially: sparse extraction, the
// all-or-nothing required-field gate, then per-row coercion and name
// resolution. Rows whose date cannot be parsed are dropped with a warning;
// every other failure aborts the batch.
func (r *Reconciler) Reconcile(ctx context.Context, g grid.Grid, m *mapper.Mapping) (*Result, error) {
	type sparseRow struct {
		num    int
		fields map[mapper.Field]string
	}

	var rows []sparseRow
	for i, raw := range g.Rows() {
		fields := make(map[mapper.Field]string)
		for col, cell := range raw {
			field := m.Get(col)
			if field == mapper.FieldSkip {
				continue
			}
			if value := strings.TrimSpace(cell); value != "" {
				fields[field] = value
			}
		}
		// fully blank or fully unmapped rows vanish silently
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, sparseRow{num: i + 1, fields: fields})
	}

	for _, row := range rows {
		for _, required := range mapper.RequiredFields {
			if _, ok := row.fields[required]; !ok {
				return nil, &ValidationError{Row: row.num, Field: required}
			}
		}
	}

	result := &Result{}
	for _, row := range rows {
		amountMilli, err := money.Parse(row.fields[mapper.FieldAmount])
		if err != nil {
			return nil, &RowError{Row: row.num, Err: err}
		}

		date, err := dates.Parse(row.fields[mapper.FieldDate])
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d dropped: %v", row.num, err))
			continue
		}

		accountID, err := r.resolveAccount(ctx, row.fields[mapper.FieldAccount], row.num)
		if err != nil {
			return nil, err
		}

		payload := Payload{
			AccountID:   accountID,
			AmountMilli: amountMilli,
			Payee:       row.fields[mapper.FieldPayee],
			Date:        date,
		}
		if name, ok := row.fields[mapper.FieldCategory]; ok {
			id, err := r.categories.Resolve(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("row %d: failed to resolve category %q: %w", row.num, name, err)
			}
			payload.CategoryID = &id
		}
		if notes, ok := row.fields[mapper.FieldNotes]; ok {
			payload.Notes = &notes
		}

		result.Payloads = append(result.Payloads, payload)
	}

	result.CreatedAccounts = r.accounts.Created()
	result.CreatedCategories = r.categories.Created()
	return result, nil
}

func (r *Reconciler) resolveAccount(ctx context.Context, name string, rowNum int) (uuid.UUID, error) {
	if name != "" {
		id, err := r.accounts.Resolve(ctx, name)
		if err != nil {
			return uuid.Nil, fmt.Errorf("row %d: failed to resolve account %q: %w", rowNum, name, err)
		}
		return id, nil
	}
	if r.defaultAccount != nil {
		return *r.defaultAccount, nil
	}
	return uuid.Nil, fmt.Errorf("row %d: no account column mapped and no target account selected", rowNum)
}
