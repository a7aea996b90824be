package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/stretchr/testify/require"
)

var quietOpts = Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

type fakeReferences struct {
	reps      map[string]string
	clients   map[string]string
	items     map[string]string
	locations map[string]analytics.Location
	err       error
	calls     [][]string
}

func (f *fakeReferences) RepresentativeNames(_ context.Context, ids []string) (map[string]string, error) {
	f.calls = append(f.calls, ids)
	return f.reps, f.err
}

func (f *fakeReferences) ClientNames(_ context.Context, ids []string) (map[string]string, error) {
	f.calls = append(f.calls, ids)
	return f.clients, f.err
}

func (f *fakeReferences) ItemDescriptions(_ context.Context, codes []string) (map[string]string, error) {
	f.calls = append(f.calls, codes)
	return f.items, f.err
}

func (f *fakeReferences) PersonLocations(_ context.Context, ids []string) (map[string]analytics.Location, error) {
	f.calls = append(f.calls, ids)
	return f.locations, f.err
}

func TestResolve_ChunksAndDedupes(t *testing.T) {
	var batches [][]string
	lookup := func(_ context.Context, ids []string) (map[string]string, error) {
		batches = append(batches, append([]string(nil), ids...))
		out := map[string]string{}
		for _, id := range ids {
			if id != "e" {
				out[id] = "name-" + id
			}
		}
		return out, nil
	}

	opts := quietOpts
	opts.BatchSize = 2
	got, err := Resolve(context.Background(), "client", []string{"c", "a", "", "b", "a", "e"}, lookup, ClientFallback, opts)

	require.NoError(t, err)
	require.Equal(t, [][]string{{"a", "b"}, {"c", "e"}}, batches)
	require.Equal(t, map[string]string{
		"a": "name-a",
		"b": "name-b",
		"c": "name-c",
		"e": "Cliente e",
	}, got)
}

func TestResolve_NoIDsNoLookup(t *testing.T) {
	called := false
	lookup := func(context.Context, []string) (map[string]string, error) {
		called = true
		return nil, nil
	}

	got, err := Resolve(context.Background(), "item", nil, lookup, ItemFallback, quietOpts)

	require.NoError(t, err)
	require.Empty(t, got)
	require.False(t, called)
}

func TestResolve_LookupFailureDegradesToFallback(t *testing.T) {
	lookup := func(context.Context, []string) (map[string]string, error) {
		return nil, errors.New("reference view missing")
	}

	got, err := Resolve(context.Background(), "representative", []string{"10", "20"}, lookup, RepresentativeFallback, quietOpts)

	require.NoError(t, err)
	require.Equal(t, map[string]string{"10": "Rep 10", "20": "Rep 20"}, got)
}

func TestResolve_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lookup := func(ctx context.Context, _ []string) (map[string]string, error) {
		cancel()
		return nil, ctx.Err()
	}

	_, err := Resolve(ctx, "client", []string{"1"}, lookup, ClientFallback, quietOpts)

	require.ErrorIs(t, err, storage.ErrCancelled)
}

func TestEnricher_RepresentativeSentinelNeverLookedUp(t *testing.T) {
	refs := &fakeReferences{reps: map[string]string{"10": "Ana"}}
	e := NewEnricher(refs, quietOpts)

	names, err := e.Representatives(context.Background(), []string{"0", "10", "30"})

	require.NoError(t, err)
	require.Equal(t, "Não identificado", names.Label("0"))
	require.Equal(t, "Ana", names.Label("10"))
	require.Equal(t, "Rep 30", names.Label("30"))
	require.Len(t, refs.calls, 1)
	require.Equal(t, []string{"10", "30"}, refs.calls[0])
}

func TestEnricher_BlankLabelsFallBack(t *testing.T) {
	refs := &fakeReferences{
		clients: map[string]string{"7": ""},
		items:   map[string]string{"SKU-1": "Parafuso"},
	}
	e := NewEnricher(refs, quietOpts)

	clients, err := e.Clients(context.Background(), []string{"7", analytics.UnidentifiedLabel})
	require.NoError(t, err)
	require.Equal(t, "Cliente 7", clients.Label("7"))
	require.Equal(t, analytics.UnidentifiedLabel, clients.Label(analytics.UnidentifiedLabel))

	items, err := e.Items(context.Background(), []string{"SKU-1", "SKU-2"})
	require.NoError(t, err)
	require.Equal(t, "Parafuso", items.Label("SKU-1"))
	require.Equal(t, "Item SKU-2", items.Label("SKU-2"))
}

func TestEnricher_LocationsUseCitySentinel(t *testing.T) {
	refs := &fakeReferences{locations: map[string]analytics.Location{
		"1": {City: "Recife", State: "PE"},
		"2": {City: "", State: "PE"},
	}}
	e := NewEnricher(refs, quietOpts)

	got, err := e.Locations(context.Background(), []string{"1", "2", "3"})

	require.NoError(t, err)
	require.Equal(t, analytics.Location{City: "Recife", State: "PE"}, got["1"])
	require.Equal(t, analytics.UndefinedLocation, got["2"])
	require.Equal(t, analytics.UndefinedLocation, got["3"])
}

func TestEnricher_NilSourceUsesFallbacks(t *testing.T) {
	e := NewEnricher(nil, quietOpts)

	names, err := e.Clients(context.Background(), []string{"5"})
	require.NoError(t, err)
	require.Equal(t, "Cliente 5", names.Label("5"))

	locs, err := e.Locations(context.Background(), []string{"5"})
	require.NoError(t, err)
	require.Equal(t, analytics.UndefinedLocation, locs["5"])
}
