package aggregation

import (
	"context"
	"errors"
	"testing"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/atacado-lab/sales-analytics/internal/enrich"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFacts wraps a fact source and records the projection of each page.
type recordingFacts struct {
	*InMemoryFactSource
	projections []storage.Projection
}

func (r *recordingFacts) InvoicePage(ctx context.Context, f storage.FactFilter, p storage.Projection, page storage.Page) ([]analytics.InvoiceFact, error) {
	r.projections = append(r.projections, p)
	return r.InMemoryFactSource.InvoicePage(ctx, f, p, page)
}

func cityKeys(rows []analytics.CityStat) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Key)
	}
	return out
}

func TestCity_GroupsByLocationWithSentinel(t *testing.T) {
	src := NewInMemoryFactSource([]analytics.InvoiceFact{
		{EmittedAt: day(2024, 5, 1), Value: dec("100"), Quantity: dec("1"), ClientID: "1", NoteNumber: "n1"},
		{EmittedAt: day(2024, 5, 1), Value: dec("40"), Quantity: dec("1"), ClientID: "2", NoteNumber: "n2"},
		{EmittedAt: day(2024, 5, 2), Value: dec("300"), Quantity: dec("1"), ClientID: "3", NoteNumber: "n3"},
		{EmittedAt: day(2024, 5, 3), Value: dec("7"), Quantity: dec("1"), ClientID: "", NoteNumber: "n4"},
	}, []analytics.OrderFact{
		{OrderedAt: day(2024, 5, 1), TotalProduct: dec("10"), QuantityOrdered: dec("1"), ClientID: "1", OrderNumber: "p1"},
		{OrderedAt: day(2024, 5, 1), TotalProduct: dec("5"), QuantityOrdered: dec("1"), ClientID: "1", OrderNumber: "p1"},
		{OrderedAt: day(2024, 5, 1), TotalProduct: dec("20"), QuantityOrdered: dec("2"), ClientID: "2", OrderNumber: "p2"},
	})
	refs := &InMemoryReferenceSource{Locations: map[string]analytics.Location{
		"1": {City: "Recife", State: "PE"},
		"2": {City: "Recife", State: "PE"},
	}}
	agg := NewCityAggregator(src, enrich.NewEnricher(refs, enrich.Options{Logger: quietLogger}), testParams())

	report, err := agg.Aggregate(context.Background(), analytics.Filter{Start: day(2024, 5, 1), End: day(2024, 5, 31)})
	require.NoError(t, err)

	require.Equal(t, []string{"Indefinido-", "Recife-PE"}, cityKeys(report.CityStats))

	undefined := report.CityStats[0]
	assert.Equal(t, analytics.UndefinedCity, undefined.City)
	assert.Equal(t, analytics.UndefinedState, undefined.State)
	assert.True(t, dec("307").Equal(undefined.InvoicedTotal))

	recife := report.CityStats[1]
	assert.True(t, dec("140").Equal(recife.InvoicedTotal))
	assert.True(t, dec("35").Equal(recife.OrderedTotal))
	assert.Equal(t, int64(2), recife.OrderCount)
	assert.Equal(t, int64(2), recife.InvoiceCount)
	assert.Equal(t, "Recife", recife.Label)
	assert.True(t, dec("70").Equal(recife.AverageTicket))

	assert.True(t, report.DataRangeInfo.HasCompleteData)
	assert.Equal(t, "2024-05-03", report.DataRangeInfo.ObservedEnd)
}

func TestCity_UsesPersonProjection(t *testing.T) {
	src := &recordingFacts{InMemoryFactSource: NewInMemoryFactSource(nil, nil)}
	agg := NewCityAggregator(src, nil, testParams())

	report, err := agg.Aggregate(context.Background(), analytics.Filter{Start: day(2024, 5, 1), End: day(2024, 5, 1)})

	require.NoError(t, err)
	require.NotNil(t, report.CityStats)
	require.Empty(t, report.CityStats)
	require.Equal(t, []storage.Projection{storage.ProjectionPerson}, src.projections)
}

func TestCity_SourceFailure(t *testing.T) {
	src := NewInMemoryFactSource(nil, nil)
	src.InvoiceErr = errors.New("permission denied for view mv_faturamento")
	agg := NewCityAggregator(src, nil, testParams())

	_, err := agg.Aggregate(context.Background(), analytics.Filter{Start: day(2024, 5, 1), End: day(2024, 5, 1)})

	require.ErrorIs(t, err, storage.ErrSourceUnavailable)
}
