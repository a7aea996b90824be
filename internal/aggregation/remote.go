package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/atacado-lab/sales-analytics/internal/enrich"
)

// ErrUnsupportedFilter is returned when a filter shape cannot be served by the
// pre-aggregation procedure.
var ErrUnsupportedFilter = errors.New("filter not supported by pre-aggregation procedure")

// RemoteAggregationAdapter serves simple filter shapes from the remote
// pre-aggregation procedure and normalizes its response.
type RemoteAggregationAdapter struct {
	procedure storage.AggregateProcedure
	enricher  *enrich.Enricher
	schema    *analytics.ResponseSchema
	logger    *slog.Logger
}

// NewRemoteAggregationAdapter creates a RemoteAggregationAdapter. A nil schema
// uses the embedded default.
func NewRemoteAggregationAdapter(procedure storage.AggregateProcedure, enricher *enrich.Enricher, schema *analytics.ResponseSchema, logger *slog.Logger) *RemoteAggregationAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	if schema == nil {
		schema = analytics.DefaultResponseSchema()
	}
	if enricher == nil {
		enricher = enrich.NewEnricher(nil, enrich.Options{Logger: logger})
	}
	return &RemoteAggregationAdapter{
		procedure: procedure,
		enricher:  enricher,
		schema:    schema,
		logger:    logger,
	}
}

// Aggregate calls the procedure for f. Responses that are not a JSON object
// produce an empty envelope rather than an error.
func (a *RemoteAggregationAdapter) Aggregate(ctx context.Context, f analytics.Filter) (*analytics.ResultEnvelope, error) {
	if f.Strategy() != analytics.StrategySimple {
		return nil, ErrUnsupportedFilter
	}
	started := time.Now()

	resp, err := a.procedure.Aggregate(ctx, storage.ProcedureParams{
		Start:          f.Start,
		End:            f.End,
		CostCenter:     f.CostCenter,
		Representative: f.Representative(),
	})
	if err != nil {
		if storage.IsCancelled(ctx, err) {
			return nil, fmt.Errorf("%w: pre-aggregation procedure: %w", storage.ErrCancelled, err)
		}
		return nil, fmt.Errorf("%w: pre-aggregation procedure: %w", storage.ErrSourceUnavailable, err)
	}

	env := analytics.NewEmptyEnvelope(f, analytics.StrategySimple)

	obj, ok := resp.(map[string]interface{})
	if !ok {
		a.logger.Warn("[Remote] Procedure returned a non-object response, using empty result",
			"type", fmt.Sprintf("%T", resp),
			"schema_version", a.schema.Version)
		return env, nil
	}

	var observed analytics.ObservedRange
	for _, row := range a.schema.Rows(obj, analytics.SectionDaily) {
		day := truncateKey(a.schema.String(row, analytics.FieldDate), len(analytics.DateLayout))
		if day == "" {
			continue
		}
		env.DailySeries = append(env.DailySeries, a.stat(row, day, day))
		if t, err := time.Parse(analytics.DateLayout, day); err == nil {
			observed.Observe(t)
		}
	}
	for _, row := range a.schema.Rows(obj, analytics.SectionMonthly) {
		month := truncateKey(a.schema.String(row, analytics.FieldMonth), len(analytics.MonthLayout))
		if month == "" {
			continue
		}
		env.MonthlySeries = append(env.MonthlySeries, a.stat(row, month, month))
	}
	ccKeys, ccStats := a.mergeRows(a.schema.Rows(obj, analytics.SectionCostCenters), func(row map[string]interface{}) string {
		return analytics.NormalizeCostCenter(a.schema.String(row, analytics.FieldCostCenter))
	})
	for _, cc := range ccKeys {
		st := ccStats[cc]
		st.Label = cc
		env.CostCenterStats = append(env.CostCenterStats, st)
	}

	repIDs, reps := a.mergeRows(a.schema.Rows(obj, analytics.SectionRepresentatives), func(row map[string]interface{}) string {
		return analytics.NormalizeRepresentativeID(a.schema.String(row, analytics.FieldRepresentativeID))
	})
	names, err := a.enricher.Representatives(ctx, repIDs)
	if err != nil {
		return nil, fmt.Errorf("pre-aggregation labels: %w", err)
	}
	for _, id := range repIDs {
		st := reps[id]
		st.Label = names.Label(id)
		env.RepresentativeStats = append(env.RepresentativeStats, st)
	}

	env.SummaryTotals = a.totals(obj, env.DailySeries)
	observed.Apply(&env.DataRangeInfo)

	analytics.SortSeriesDesc(env.DailySeries)
	analytics.SortSeriesDesc(env.MonthlySeries)
	analytics.SortByInvoicedDesc(env.CostCenterStats)
	analytics.SortByInvoicedDesc(env.RepresentativeStats)

	a.logger.Info("[Remote] Aggregation complete",
		"start", env.DataRangeInfo.RequestedStart,
		"end", env.DataRangeInfo.RequestedEnd,
		"days", len(env.DailySeries),
		"representatives", len(env.RepresentativeStats),
		"schema_version", a.schema.Version,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return env, nil
}

func (a *RemoteAggregationAdapter) stat(row map[string]interface{}, key, label string) analytics.Stat {
	s := a.schema
	invoiced := s.Decimal(row, analytics.FieldInvoicedTotal)
	items := s.Decimal(row, analytics.FieldItemsInvoiced)
	return analytics.Stat{
		Key:              key,
		Label:            label,
		InvoicedTotal:    invoiced,
		InvoiceLineCount: s.Int(row, analytics.FieldInvoiceLineCount),
		InvoiceCount:     s.Int(row, analytics.FieldInvoiceCount),
		ItemsInvoiced:    items,
		OrderedTotal:     s.Decimal(row, analytics.FieldOrderedTotal),
		OrderCount:       s.Int(row, analytics.FieldOrderCount),
		ItemsOrdered:     s.Decimal(row, analytics.FieldItemsOrdered),
		ItemsDelivered:   s.Decimal(row, analytics.FieldItemsDelivered),
		AverageTicket:    analytics.AverageTicket(invoiced, items),
	}
}

// mergeRows reads one stat per normalized key, in first-seen order. Rows whose
// raw keys normalize alike (null, "" and "0" ids) are summed into one stat.
func (a *RemoteAggregationAdapter) mergeRows(rows []map[string]interface{}, keyOf func(map[string]interface{}) string) ([]string, map[string]analytics.Stat) {
	var order []string
	stats := make(map[string]analytics.Stat, len(rows))
	for _, row := range rows {
		key := keyOf(row)
		st := a.stat(row, key, "")
		if prev, ok := stats[key]; ok {
			st = mergeStats(prev, st)
		} else {
			order = append(order, key)
		}
		stats[key] = st
	}
	return order, stats
}

func mergeStats(a, b analytics.Stat) analytics.Stat {
	a.InvoicedTotal = a.InvoicedTotal.Add(b.InvoicedTotal)
	a.InvoiceLineCount += b.InvoiceLineCount
	a.InvoiceCount += b.InvoiceCount
	a.ItemsInvoiced = a.ItemsInvoiced.Add(b.ItemsInvoiced)
	a.OrderedTotal = a.OrderedTotal.Add(b.OrderedTotal)
	a.OrderCount += b.OrderCount
	a.ItemsOrdered = a.ItemsOrdered.Add(b.ItemsOrdered)
	a.ItemsDelivered = a.ItemsDelivered.Add(b.ItemsDelivered)
	a.AverageTicket = analytics.AverageTicket(a.InvoicedTotal, a.ItemsInvoiced)
	return a
}

// totals reads the totals section, which may be an object or a one-element
// list. Without it the totals are summed from the daily series.
func (a *RemoteAggregationAdapter) totals(obj map[string]interface{}, daily []analytics.Stat) analytics.SummaryTotals {
	var row map[string]interface{}
	if v, ok := a.schema.Section(obj, analytics.SectionTotals); ok {
		switch t := v.(type) {
		case map[string]interface{}:
			row = t
		case []interface{}:
			if len(t) > 0 {
				row, _ = t[0].(map[string]interface{})
			}
		}
	}

	if row == nil {
		sum := analytics.NewBucket("total")
		for _, d := range daily {
			sum.Merge(&analytics.Bucket{
				InvoicedTotal:    d.InvoicedTotal,
				InvoiceLineCount: d.InvoiceLineCount,
				InvoiceCount:     d.InvoiceCount,
				ItemsInvoiced:    d.ItemsInvoiced,
				OrderedTotal:     d.OrderedTotal,
				OrderCount:       d.OrderCount,
				ItemsOrdered:     d.ItemsOrdered,
				ItemsDelivered:   d.ItemsDelivered,
			})
		}
		return analytics.SummaryTotals{
			InvoicedTotal:    sum.InvoicedTotal,
			InvoiceLineCount: sum.InvoiceLineCount,
			InvoiceCount:     sum.InvoiceCount,
			ItemsInvoiced:    sum.ItemsInvoiced,
			OrderedTotal:     sum.OrderedTotal,
			OrderCount:       sum.OrderCount,
			ItemsOrdered:     sum.ItemsOrdered,
			ItemsDelivered:   sum.ItemsDelivered,
			AverageTicket:    sum.AverageTicket(),
		}
	}

	st := a.stat(row, "", "")
	return analytics.SummaryTotals{
		InvoicedTotal:           st.InvoicedTotal,
		InvoiceLineCount:        st.InvoiceLineCount,
		InvoiceCount:            st.InvoiceCount,
		ItemsInvoiced:           st.ItemsInvoiced,
		OrderedTotal:            st.OrderedTotal,
		OrderCount:              st.OrderCount,
		ItemsOrdered:            st.ItemsOrdered,
		ItemsDelivered:          st.ItemsDelivered,
		AverageTicket:           st.AverageTicket,
		DistinctClients:         a.schema.Int(row, analytics.FieldDistinctClients),
		DistinctRepresentatives: a.schema.Int(row, analytics.FieldDistinctRepresentatives),
	}
}

// truncateKey cuts timestamps such as "2024-01-05T00:00:00" down to the key layout.
func truncateKey(v string, n int) string {
	if len(v) > n {
		return v[:n]
	}
	return v
}
