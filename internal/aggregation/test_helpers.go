package aggregation

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
)

// InMemoryFactSource is a test helper that implements storage.FactSource over
// slices, applying the pushed-down filter and paging like the database would.
type InMemoryFactSource struct {
	Invoices []analytics.InvoiceFact
	Orders   []analytics.OrderFact

	// InvoiceErr and OrderErr, when set, fail every page of that table.
	InvoiceErr error
	OrderErr   error

	mu       sync.Mutex
	requests map[string][]storage.Page
	filters  []storage.FactFilter
}

// NewInMemoryFactSource creates a new in-memory fact source for testing.
func NewInMemoryFactSource(invoices []analytics.InvoiceFact, orders []analytics.OrderFact) *InMemoryFactSource {
	return &InMemoryFactSource{Invoices: invoices, Orders: orders}
}

func (s *InMemoryFactSource) InvoicePage(ctx context.Context, filter storage.FactFilter, _ storage.Projection, page storage.Page) ([]analytics.InvoiceFact, error) {
	s.record("invoices", filter, page)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.InvoiceErr != nil {
		return nil, s.InvoiceErr
	}
	var matched []analytics.InvoiceFact
	for _, f := range s.Invoices {
		if matchFact(filter, f.EmittedAt, f.CostCenter, f.RepresentativeID, f.ClientID, f.ItemCode) {
			matched = append(matched, f)
		}
	}
	return window(matched, page), nil
}

func (s *InMemoryFactSource) OrderPage(ctx context.Context, filter storage.FactFilter, _ storage.Projection, page storage.Page) ([]analytics.OrderFact, error) {
	s.record("orders", filter, page)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.OrderErr != nil {
		return nil, s.OrderErr
	}
	var matched []analytics.OrderFact
	for _, f := range s.Orders {
		if matchFact(filter, f.OrderedAt, f.CostCenter, f.RepresentativeID, f.ClientID, f.ItemCode) {
			matched = append(matched, f)
		}
	}
	return window(matched, page), nil
}

// Requests returns the page requests issued against table ("invoices" or "orders").
func (s *InMemoryFactSource) Requests(table string) []storage.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Page(nil), s.requests[table]...)
}

// Filters returns every filter pushed down so far.
func (s *InMemoryFactSource) Filters() []storage.FactFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.FactFilter(nil), s.filters...)
}

func (s *InMemoryFactSource) record(table string, filter storage.FactFilter, page storage.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requests == nil {
		s.requests = make(map[string][]storage.Page)
	}
	s.requests[table] = append(s.requests[table], page)
	s.filters = append(s.filters, filter)
}

func matchFact(f storage.FactFilter, at time.Time, costCenter, rep, client, item string) bool {
	day := at.Format(analytics.DateLayout)
	if !f.Start.IsZero() && day < f.Start.Format(analytics.DateLayout) {
		return false
	}
	if !f.End.IsZero() && day > f.End.Format(analytics.DateLayout) {
		return false
	}
	if f.CostCenter != "" && f.CostCenter != costCenter {
		return false
	}
	if len(f.Representatives) > 0 && !slices.Contains(f.Representatives, rep) {
		return false
	}
	if len(f.Clients) > 0 && !slices.Contains(f.Clients, client) {
		return false
	}
	if len(f.Products) > 0 && !slices.Contains(f.Products, item) {
		return false
	}
	return true
}

func window[T any](rows []T, page storage.Page) []T {
	if page.Offset >= len(rows) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[page.Offset:end]
}

// InMemoryReferenceSource is a test helper that implements storage.ReferenceSource.
type InMemoryReferenceSource struct {
	Representatives map[string]string
	Clients         map[string]string
	Items           map[string]string
	Locations       map[string]analytics.Location
}

func (r *InMemoryReferenceSource) RepresentativeNames(_ context.Context, ids []string) (map[string]string, error) {
	return pick(r.Representatives, ids), nil
}

func (r *InMemoryReferenceSource) ClientNames(_ context.Context, ids []string) (map[string]string, error) {
	return pick(r.Clients, ids), nil
}

func (r *InMemoryReferenceSource) ItemDescriptions(_ context.Context, codes []string) (map[string]string, error) {
	return pick(r.Items, codes), nil
}

func (r *InMemoryReferenceSource) PersonLocations(_ context.Context, ids []string) (map[string]analytics.Location, error) {
	return pick(r.Locations, ids), nil
}

func pick[V any](src map[string]V, ids []string) map[string]V {
	out := make(map[string]V, len(ids))
	for _, id := range ids {
		if v, ok := src[id]; ok {
			out[id] = v
		}
	}
	return out
}
