package enrich

import (
	"context"
	"slices"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
)

// Dimension labels used in logs and metrics.
const (
	DimensionRepresentative = "representative"
	DimensionClient         = "client"
	DimensionItem           = "item"
	DimensionLocation       = "location"
)

// NameMap maps dimension ids to display labels for one call.
type NameMap map[string]string

// Label returns the label for id, or id itself when unknown.
func (m NameMap) Label(id string) string {
	if l, ok := m[id]; ok {
		return l
	}
	return id
}

// RepresentativeFallback labels an unresolved representative.
func RepresentativeFallback(id string) string { return "Rep " + id }

// ClientFallback labels an unresolved client.
func ClientFallback(id string) string { return "Cliente " + id }

// ItemFallback labels an unresolved item.
func ItemFallback(code string) string { return "Item " + code }

// LocationFallback places an unresolved person in the undefined city.
func LocationFallback(string) analytics.Location { return analytics.UndefinedLocation }

// Enricher resolves dimension labels against a ReferenceSource.
// A nil source labels everything with fallbacks.
type Enricher struct {
	source storage.ReferenceSource
	opts   Options
}

// NewEnricher creates an Enricher.
func NewEnricher(source storage.ReferenceSource, opts Options) *Enricher {
	return &Enricher{source: source, opts: opts}
}

// Representatives resolves representative names. The "0" id is the
// unidentified sentinel and is never looked up.
func (e *Enricher) Representatives(ctx context.Context, ids []string) (NameMap, error) {
	lookupIDs := withoutSentinels(ids, analytics.UnidentifiedRepID, analytics.UnidentifiedLabel)
	var lookup LookupFunc[string]
	if e.source != nil {
		lookup = e.source.RepresentativeNames
	}
	names, err := e.resolveNames(ctx, DimensionRepresentative, lookupIDs, lookup, RepresentativeFallback)
	if err != nil {
		return nil, err
	}
	if slices.Contains(ids, analytics.UnidentifiedRepID) {
		names[analytics.UnidentifiedRepID] = analytics.UnidentifiedLabel
	}
	if slices.Contains(ids, analytics.UnidentifiedLabel) {
		names[analytics.UnidentifiedLabel] = analytics.UnidentifiedLabel
	}
	return names, nil
}

// Clients resolves client names.
func (e *Enricher) Clients(ctx context.Context, ids []string) (NameMap, error) {
	var lookup LookupFunc[string]
	if e.source != nil {
		lookup = e.source.ClientNames
	}
	return e.resolveSentinelAware(ctx, DimensionClient, ids, lookup, ClientFallback)
}

// Items resolves item descriptions.
func (e *Enricher) Items(ctx context.Context, codes []string) (NameMap, error) {
	var lookup LookupFunc[string]
	if e.source != nil {
		lookup = e.source.ItemDescriptions
	}
	return e.resolveSentinelAware(ctx, DimensionItem, codes, lookup, ItemFallback)
}

// Locations resolves person ids to their city and state.
func (e *Enricher) Locations(ctx context.Context, personIDs []string) (map[string]analytics.Location, error) {
	lookup := LookupFunc[analytics.Location](func(context.Context, []string) (map[string]analytics.Location, error) {
		return nil, nil
	})
	if e.source != nil {
		lookup = e.source.PersonLocations
	}
	locations, err := Resolve(ctx, DimensionLocation, personIDs, lookup, LocationFallback, e.opts)
	if err != nil {
		return nil, err
	}
	for id, loc := range locations {
		if loc.City == "" {
			locations[id] = analytics.UndefinedLocation
		}
	}
	return locations, nil
}

func (e *Enricher) resolveSentinelAware(ctx context.Context, dimension string, ids []string, lookup LookupFunc[string], fallback func(string) string) (NameMap, error) {
	names, err := e.resolveNames(ctx, dimension, withoutSentinels(ids, analytics.UnidentifiedLabel), lookup, fallback)
	if err != nil {
		return nil, err
	}
	if slices.Contains(ids, analytics.UnidentifiedLabel) {
		names[analytics.UnidentifiedLabel] = analytics.UnidentifiedLabel
	}
	return names, nil
}

func (e *Enricher) resolveNames(ctx context.Context, dimension string, ids []string, lookup LookupFunc[string], fallback func(string) string) (NameMap, error) {
	if lookup == nil {
		lookup = func(context.Context, []string) (map[string]string, error) { return nil, nil }
	}
	resolved, err := Resolve(ctx, dimension, ids, lookup, fallback, e.opts)
	if err != nil {
		return nil, err
	}
	names := NameMap(resolved)
	for id, label := range names {
		if label == "" {
			names[id] = fallback(id)
		}
	}
	return names, nil
}

func withoutSentinels(ids []string, sentinels ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(sentinels, id) {
			out = append(out, id)
		}
	}
	return out
}
