package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/atacado-lab/sales-analytics/internal/enrich"
	"github.com/atacado-lab/sales-analytics/internal/scan"
	"golang.org/x/sync/errgroup"
)

// CityAggregator builds the per-city rollup. It always scans raw facts with the
// person projection, accumulates per client, then regroups by client location.
type CityAggregator struct {
	facts     storage.FactSource
	enricher  *enrich.Enricher
	params    ScanParameter
	lineValue analytics.LineValuePolicy
	logger    *slog.Logger
}

// NewCityAggregator creates a CityAggregator.
func NewCityAggregator(facts storage.FactSource, enricher *enrich.Enricher, params ScanParameter) *CityAggregator {
	params = params.normalized()
	if enricher == nil {
		enricher = enrich.NewEnricher(nil, enrich.Options{Logger: params.Logger})
	}
	return &CityAggregator{
		facts:     facts,
		enricher:  enricher,
		params:    params,
		lineValue: analytics.LookupLineValuePolicy(params.LineValue),
		logger:    params.Logger,
	}
}

// Aggregate returns city stats sorted by invoiced total, highest first.
// Clients without a resolvable location land in the "Indefinido" city.
func (c *CityAggregator) Aggregate(ctx context.Context, f analytics.Filter) (*analytics.CityReport, error) {
	started := time.Now()
	filter := storage.FactFilterFrom(f)

	var invoices scan.Result[analytics.InvoiceFact]
	var orders scan.Result[analytics.OrderFact]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = scanInvoices(gctx, c.facts, filter, storage.ProjectionPerson, c.params)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = scanOrders(gctx, c.facts, filter, storage.ProjectionPerson, c.params)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("city aggregation: %w", err)
	}

	persons := analytics.BucketSet{}
	var observed analytics.ObservedRange
	for _, inv := range invoices.Rows {
		persons.Get(inv.ClientID).AddInvoice(c.lineValue.InvoiceValue(inv), inv.Quantity, inv.NoteNumber)
		observed.Observe(inv.EmittedAt)
	}
	for _, ord := range orders.Rows {
		persons.Get(ord.ClientID).AddOrder(analytics.OrderValue(ord), ord.QuantityOrdered, ord.QuantityDelivered, ord.OrderNumber)
		observed.Observe(ord.OrderedAt)
	}

	locations, err := c.enricher.Locations(ctx, persons.Keys())
	if err != nil {
		return nil, fmt.Errorf("city aggregation: %w", err)
	}

	cities := analytics.BucketSet{}
	places := map[string]analytics.Location{}
	for personID, person := range persons {
		loc, ok := locations[personID]
		if !ok {
			loc = analytics.UndefinedLocation
		}
		key := loc.Key()
		places[key] = loc
		cities.Get(key).Merge(person)
	}

	stats := make([]analytics.CityStat, 0, len(cities))
	for _, key := range cities.Keys() {
		loc := places[key]
		stats = append(stats, analytics.CityStat{
			Stat:  cities[key].Stat(loc.City),
			City:  loc.City,
			State: loc.State,
		})
	}
	analytics.SortCitiesByInvoicedDesc(stats)

	report := &analytics.CityReport{
		CityStats: stats,
		DataRangeInfo: analytics.DataRangeInfo{
			RequestedStart:  f.Start.Format(analytics.DateLayout),
			RequestedEnd:    f.End.Format(analytics.DateLayout),
			HasCompleteData: true,
		},
	}
	if invoices.Truncated {
		report.DataRangeInfo.MarkTruncated(SourceInvoices, invoices.Reason, len(invoices.Rows))
	}
	if orders.Truncated {
		report.DataRangeInfo.MarkTruncated(SourceOrders, orders.Reason, len(orders.Rows))
	}
	observed.Apply(&report.DataRangeInfo)

	c.logger.Info("[City] Aggregation complete",
		"persons", len(persons),
		"cities", len(stats),
		"complete", report.DataRangeInfo.HasCompleteData,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return report, nil
}
