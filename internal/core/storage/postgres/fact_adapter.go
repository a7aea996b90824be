package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
)

// FactAdapter implements storage.FactSource over the invoice and order views.
// Every page re-applies the full filter; cancelled rows never leave the database.
type FactAdapter struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFactAdapter creates a FactAdapter sharing the given connection.
func NewFactAdapter(db *sql.DB, logger *slog.Logger) *FactAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FactAdapter{db: db, logger: logger}
}

// InvoicePage returns one window of invoice lines.
func (a *FactAdapter) InvoicePage(ctx context.Context, filter storage.FactFilter, projection storage.Projection, page storage.Page) ([]analytics.InvoiceFact, error) {
	query, args := buildFactQuery(invoiceTable, projection, filter, page)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	facts := make([]analytics.InvoiceFact, 0, page.Limit)
	for rows.Next() {
		f, err := scanInvoiceRow(rows, projection)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	a.logger.Debug("[Postgres] Invoice page",
		"offset", page.Offset,
		"limit", page.Limit,
		"projection", projection.String(),
		"rows", len(facts))
	return facts, nil
}

// OrderPage returns one window of order lines.
func (a *FactAdapter) OrderPage(ctx context.Context, filter storage.FactFilter, projection storage.Projection, page storage.Page) ([]analytics.OrderFact, error) {
	query, args := buildFactQuery(orderTable, projection, filter, page)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	facts := make([]analytics.OrderFact, 0, page.Limit)
	for rows.Next() {
		f, err := scanOrderRow(rows, projection)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	a.logger.Debug("[Postgres] Order page",
		"offset", page.Offset,
		"limit", page.Limit,
		"projection", projection.String(),
		"rows", len(facts))
	return facts, nil
}
