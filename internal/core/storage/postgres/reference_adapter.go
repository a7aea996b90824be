package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/lib/pq"
)

// ReferenceAdapter implements storage.ReferenceSource with one = ANY($1)
// query per batch.
type ReferenceAdapter struct {
	db *sql.DB
}

// NewReferenceAdapter creates a ReferenceAdapter sharing the given connection.
func NewReferenceAdapter(db *sql.DB) *ReferenceAdapter {
	return &ReferenceAdapter{db: db}
}

func (a *ReferenceAdapter) RepresentativeNames(ctx context.Context, ids []string) (map[string]string, error) {
	return a.names(ctx, queryRepresentativeNames, "representative", ids)
}

func (a *ReferenceAdapter) ClientNames(ctx context.Context, ids []string) (map[string]string, error) {
	return a.names(ctx, queryClientNames, "client", ids)
}

func (a *ReferenceAdapter) ItemDescriptions(ctx context.Context, codes []string) (map[string]string, error) {
	return a.names(ctx, queryItemDescriptions, "item", codes)
}

// PersonLocations returns the city and state of each person found. Persons
// without a city are omitted so the caller applies its sentinel.
func (a *ReferenceAdapter) PersonLocations(ctx context.Context, ids []string) (map[string]analytics.Location, error) {
	out := make(map[string]analytics.Location, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := a.db.QueryContext(ctx, queryPersonLocations, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query person locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var city, state sql.NullString
		if err := rows.Scan(&id, &city, &state); err != nil {
			return nil, fmt.Errorf("failed to scan person location: %w", err)
		}
		if !city.Valid || city.String == "" {
			continue
		}
		out[id] = analytics.Location{City: city.String, State: state.String}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating person locations: %w", err)
	}
	return out, nil
}

func (a *ReferenceAdapter) names(ctx context.Context, query, dimension string, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := a.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s names: %w", dimension, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var name sql.NullString
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan %s name: %w", dimension, err)
		}
		if name.Valid && name.String != "" {
			out[id] = name.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s names: %w", dimension, err)
	}
	return out, nil
}
