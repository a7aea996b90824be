package storage

import (
	"context"
	"errors"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
)

// ErrSourceUnavailable wraps any failure of a fact scan or of the pre-aggregation
// procedure. It is fatal for the call; callers do not retry.
var ErrSourceUnavailable = errors.New("data source unavailable")

// ErrCancelled is returned when the caller's context is done before the call
// completes. It is never reported as a truncated success.
var ErrCancelled = errors.New("query cancelled")

// Projection selects which columns a fact scan returns.
type Projection int

const (
	// ProjectionFull returns every column of the fact.
	ProjectionFull Projection = iota
	// ProjectionPerson returns only the client id plus value fields and dedup keys.
	// Used by the geographic rollup.
	ProjectionPerson
)

func (p Projection) String() string {
	if p == ProjectionPerson {
		return "person"
	}
	return "full"
}

// FactFilter is the predicate pushed down with every page request.
// Start and End are inclusive calendar dates. Empty fields do not filter.
type FactFilter struct {
	Start           time.Time
	End             time.Time
	CostCenter      string
	Representatives []string
	Clients         []string
	Products        []string
}

// FactFilterFrom converts a caller filter into the pushdown predicate.
func FactFilterFrom(f analytics.Filter) FactFilter {
	return FactFilter{
		Start:           f.Start,
		End:             f.End,
		CostCenter:      f.CostCenter,
		Representatives: f.Representatives,
		Clients:         f.Clients,
		Products:        f.Products,
	}
}

// Page is a half-open row window [Offset, Offset+Limit).
type Page struct {
	Offset int
	Limit  int
}

// ProcedureParams are the arguments of the pre-aggregation procedure.
// CostCenter and Representative are empty when not filtered.
type ProcedureParams struct {
	Start          time.Time
	End            time.Time
	CostCenter     string
	Representative string
}

// FactSource serves paginated, filtered, cancelled-excluded fact rows.
// A page shorter than Page.Limit signals the end of the result set.
type FactSource interface {
	InvoicePage(ctx context.Context, filter FactFilter, projection Projection, page Page) ([]analytics.InvoiceFact, error)
	OrderPage(ctx context.Context, filter FactFilter, projection Projection, page Page) ([]analytics.OrderFact, error)
}

// AggregateProcedure invokes the remote pre-aggregation routine. The result is
// the decoded JSON document; its shape varies between deployments.
type AggregateProcedure interface {
	Aggregate(ctx context.Context, params ProcedureParams) (any, error)
}

// ReferenceSource resolves dimension labels in batches. Ids missing from the
// result are unresolved; callers supply fallbacks.
type ReferenceSource interface {
	RepresentativeNames(ctx context.Context, ids []string) (map[string]string, error)
	ClientNames(ctx context.Context, ids []string) (map[string]string, error)
	ItemDescriptions(ctx context.Context, codes []string) (map[string]string, error)
	PersonLocations(ctx context.Context, personIDs []string) (map[string]analytics.Location, error)
}
