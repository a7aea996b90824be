package aggregation

import (
	"context"
	"log/slog"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/atacado-lab/sales-analytics/internal/metrics"
	"github.com/atacado-lab/sales-analytics/internal/scan"
)

// Scan source labels.
const (
	SourceInvoices = "invoices"
	SourceOrders   = "orders"
)

// ScanParameter controls paging and line valuation for in-process aggregation.
type ScanParameter struct {
	PageSize    int
	HardCap     int
	OnPageError scan.PageErrorPolicy
	LineValue   string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// DefaultScanParameter returns the production defaults.
func DefaultScanParameter() ScanParameter {
	return ScanParameter{
		PageSize:    scan.DefaultPageSize,
		HardCap:     scan.DefaultHardCap,
		OnPageError: scan.PageErrorFail,
		LineValue:   analytics.LineValueComputed,
	}
}

func (p ScanParameter) normalized() ScanParameter {
	n := p
	if n.PageSize <= 0 {
		n.PageSize = scan.DefaultPageSize
	}
	if n.HardCap < 0 {
		n.HardCap = 0
	}
	if !n.OnPageError.Valid() {
		n.OnPageError = scan.PageErrorFail
	}
	if !analytics.ValidLineValuePolicy(n.LineValue) {
		n.LineValue = analytics.LineValueComputed
	}
	if n.Logger == nil {
		n.Logger = slog.Default()
	}
	return n
}

func (p ScanParameter) options(source string) scan.Options {
	return scan.Options{
		Source:      source,
		PageSize:    p.PageSize,
		HardCap:     p.HardCap,
		OnPageError: p.OnPageError,
		Logger:      p.Logger,
		Metrics:     p.Metrics,
	}
}

func scanInvoices(ctx context.Context, facts storage.FactSource, filter storage.FactFilter, projection storage.Projection, p ScanParameter) (scan.Result[analytics.InvoiceFact], error) {
	return scan.FetchAll(ctx, func(ctx context.Context, page storage.Page) ([]analytics.InvoiceFact, error) {
		return facts.InvoicePage(ctx, filter, projection, page)
	}, p.options(SourceInvoices))
}

func scanOrders(ctx context.Context, facts storage.FactSource, filter storage.FactFilter, projection storage.Projection, p ScanParameter) (scan.Result[analytics.OrderFact], error) {
	return scan.FetchAll(ctx, func(ctx context.Context, page storage.Page) ([]analytics.OrderFact, error) {
		return facts.OrderPage(ctx, filter, projection, page)
	}, p.options(SourceOrders))
}

// orUnidentified maps an empty dimension id to the sentinel label.
func orUnidentified(id string) string {
	if id == "" {
		return analytics.UnidentifiedLabel
	}
	return id
}
