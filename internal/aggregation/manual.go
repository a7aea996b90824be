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

// ManualAggregationEngine computes dashboard rollups in-process from raw paged
// facts. It serves every filter shape the pre-aggregation procedure cannot.
type ManualAggregationEngine struct {
	facts     storage.FactSource
	enricher  *enrich.Enricher
	params    ScanParameter
	lineValue analytics.LineValuePolicy
	logger    *slog.Logger
}

// NewManualAggregationEngine creates a ManualAggregationEngine.
func NewManualAggregationEngine(facts storage.FactSource, enricher *enrich.Enricher, params ScanParameter) *ManualAggregationEngine {
	params = params.normalized()
	if enricher == nil {
		enricher = enrich.NewEnricher(nil, enrich.Options{Logger: params.Logger})
	}
	return &ManualAggregationEngine{
		facts:     facts,
		enricher:  enricher,
		params:    params,
		lineValue: analytics.LookupLineValuePolicy(params.LineValue),
		logger:    params.Logger,
	}
}

// dimensionSets holds the call-local buckets of one manual aggregation.
type dimensionSets struct {
	daily       analytics.BucketSet
	monthly     analytics.BucketSet
	costCenters analytics.BucketSet
	reps        analytics.BucketSet
	clients     analytics.BucketSet
	products    analytics.BucketSet
	summary     *analytics.Bucket

	distinctClients analytics.DistinctKeyCounter
	distinctReps    analytics.DistinctKeyCounter
	observed        analytics.ObservedRange
}

func newDimensionSets() *dimensionSets {
	return &dimensionSets{
		daily:       analytics.BucketSet{},
		monthly:     analytics.BucketSet{},
		costCenters: analytics.BucketSet{},
		reps:        analytics.BucketSet{},
		clients:     analytics.BucketSet{},
		products:    analytics.BucketSet{},
		summary:     analytics.NewBucket("total"),
	}
}

// Aggregate runs the invoice and order scans concurrently, reduces them into
// every dimension and labels the result. A failure of either scan fails the call.
func (e *ManualAggregationEngine) Aggregate(ctx context.Context, f analytics.Filter) (*analytics.ResultEnvelope, error) {
	started := time.Now()
	filter := storage.FactFilterFrom(f)

	var invoices scan.Result[analytics.InvoiceFact]
	var orders scan.Result[analytics.OrderFact]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = scanInvoices(gctx, e.facts, filter, storage.ProjectionFull, e.params)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = scanOrders(gctx, e.facts, filter, storage.ProjectionFull, e.params)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("manual aggregation: %w", err)
	}

	sets := newDimensionSets()
	for _, inv := range invoices.Rows {
		e.addInvoice(sets, inv)
	}
	for _, ord := range orders.Rows {
		e.addOrder(sets, ord)
	}

	env := analytics.NewEmptyEnvelope(f, analytics.StrategyManual)
	if invoices.Truncated {
		env.DataRangeInfo.MarkTruncated(SourceInvoices, invoices.Reason, len(invoices.Rows))
	}
	if orders.Truncated {
		env.DataRangeInfo.MarkTruncated(SourceOrders, orders.Reason, len(orders.Rows))
	}
	sets.observed.Apply(&env.DataRangeInfo)

	if err := e.label(ctx, sets, env); err != nil {
		return nil, err
	}
	env.SummaryTotals = summarize(sets)

	e.logger.Info("[Manual] Aggregation complete",
		"start", env.DataRangeInfo.RequestedStart,
		"end", env.DataRangeInfo.RequestedEnd,
		"invoice_rows", len(invoices.Rows),
		"order_rows", len(orders.Rows),
		"invoice_pages", invoices.Pages,
		"order_pages", orders.Pages,
		"complete", env.DataRangeInfo.HasCompleteData,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return env, nil
}

func (e *ManualAggregationEngine) addInvoice(sets *dimensionSets, inv analytics.InvoiceFact) {
	value := e.lineValue.InvoiceValue(inv)
	rep := analytics.NormalizeRepresentativeID(inv.RepresentativeID)
	client := orUnidentified(inv.ClientID)

	for _, b := range []*analytics.Bucket{
		sets.daily.Get(inv.EmittedAt.Format(analytics.DateLayout)),
		sets.monthly.Get(inv.EmittedAt.Format(analytics.MonthLayout)),
		sets.costCenters.Get(analytics.NormalizeCostCenter(inv.CostCenter)),
		sets.reps.Get(rep),
		sets.clients.Get(client),
		sets.products.Get(orUnidentified(inv.ItemCode)),
		sets.summary,
	} {
		b.AddInvoice(value, inv.Quantity, inv.NoteNumber)
	}

	sets.observed.Observe(inv.EmittedAt)
	sets.distinctClients.Add(inv.ClientID)
	if rep != analytics.UnidentifiedRepID {
		sets.distinctReps.Add(rep)
	}
}

func (e *ManualAggregationEngine) addOrder(sets *dimensionSets, ord analytics.OrderFact) {
	value := analytics.OrderValue(ord)
	rep := analytics.NormalizeRepresentativeID(ord.RepresentativeID)

	for _, b := range []*analytics.Bucket{
		sets.daily.Get(ord.OrderedAt.Format(analytics.DateLayout)),
		sets.monthly.Get(ord.OrderedAt.Format(analytics.MonthLayout)),
		sets.costCenters.Get(analytics.NormalizeCostCenter(ord.CostCenter)),
		sets.reps.Get(rep),
		sets.clients.Get(orUnidentified(ord.ClientID)),
		sets.products.Get(orUnidentified(ord.ItemCode)),
		sets.summary,
	} {
		b.AddOrder(value, ord.QuantityOrdered, ord.QuantityDelivered, ord.OrderNumber)
	}

	sets.observed.Observe(ord.OrderedAt)
	sets.distinctClients.Add(ord.ClientID)
	if rep != analytics.UnidentifiedRepID {
		sets.distinctReps.Add(rep)
	}
}

// label resolves representative, client and item names concurrently and fills
// the stat lists of env.
func (e *ManualAggregationEngine) label(ctx context.Context, sets *dimensionSets, env *analytics.ResultEnvelope) error {
	var repNames, clientNames, itemNames enrich.NameMap

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		repNames, err = e.enricher.Representatives(gctx, sets.reps.Keys())
		return err
	})
	g.Go(func() error {
		var err error
		clientNames, err = e.enricher.Clients(gctx, sets.clients.Keys())
		return err
	})
	g.Go(func() error {
		var err error
		itemNames, err = e.enricher.Items(gctx, sets.products.Keys())
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("manual aggregation: %w", err)
	}

	env.DailySeries = sets.daily.Stats(nil)
	env.MonthlySeries = sets.monthly.Stats(nil)
	env.CostCenterStats = sets.costCenters.Stats(nil)
	env.RepresentativeStats = sets.reps.Stats(repNames.Label)
	env.ClientStats = sets.clients.Stats(clientNames.Label)
	env.ProductStats = sets.products.Stats(itemNames.Label)

	analytics.SortSeriesDesc(env.DailySeries)
	analytics.SortSeriesDesc(env.MonthlySeries)
	analytics.SortByInvoicedDesc(env.CostCenterStats)
	analytics.SortByInvoicedDesc(env.RepresentativeStats)
	analytics.SortByInvoicedDesc(env.ClientStats)
	analytics.SortByInvoicedDesc(env.ProductStats)
	return nil
}

func summarize(sets *dimensionSets) analytics.SummaryTotals {
	s := sets.summary
	return analytics.SummaryTotals{
		InvoicedTotal:           s.InvoicedTotal,
		InvoiceLineCount:        s.InvoiceLineCount,
		InvoiceCount:            s.InvoiceCount,
		ItemsInvoiced:           s.ItemsInvoiced,
		OrderedTotal:            s.OrderedTotal,
		OrderCount:              s.OrderCount,
		ItemsOrdered:            s.ItemsOrdered,
		ItemsDelivered:          s.ItemsDelivered,
		AverageTicket:           s.AverageTicket(),
		DistinctClients:         int64(sets.distinctClients.Len()),
		DistinctRepresentatives: int64(sets.distinctReps.Len()),
	}
}
