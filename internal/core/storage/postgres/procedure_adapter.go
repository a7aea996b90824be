package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
)

// ProcedureAdapter implements storage.AggregateProcedure by calling
// rpc_dashboard_comercial, which returns one JSON document.
type ProcedureAdapter struct {
	stmt *sql.Stmt
}

// NewProcedureAdapter prepares the procedure call on db.
func NewProcedureAdapter(db *sql.DB) (*ProcedureAdapter, error) {
	stmt, err := db.Prepare(queryDashboardProcedure)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dashboard procedure statement: %w", err)
	}
	return &ProcedureAdapter{stmt: stmt}, nil
}

// Aggregate runs the procedure and decodes its JSON result. Numbers are kept as
// json.Number so NUMERIC totals keep their precision. A NULL result decodes to nil.
func (a *ProcedureAdapter) Aggregate(ctx context.Context, params storage.ProcedureParams) (any, error) {
	var raw []byte
	err := a.stmt.QueryRowContext(ctx,
		params.Start.Format(analytics.DateLayout),
		params.End.Format(analytics.DateLayout),
		params.CostCenter,
		params.Representative,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to call rpc_dashboard_comercial: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode rpc_dashboard_comercial result: %w", err)
	}
	return out, nil
}

// Close releases the prepared statement.
func (a *ProcedureAdapter) Close() error {
	return a.stmt.Close()
}
