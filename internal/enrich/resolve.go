package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/atacado-lab/sales-analytics/internal/metrics"
)

// DefaultBatchSize bounds the ids sent in one reference lookup.
const DefaultBatchSize = 500

// LookupFunc resolves one batch of ids. Ids absent from the result are unresolved.
type LookupFunc[V any] func(ctx context.Context, ids []string) (map[string]V, error)

// Options configure batched resolution.
type Options struct {
	BatchSize int
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Resolve looks up every distinct non-empty id in batches of opts.BatchSize and
// returns a map holding a value for each of them. Unresolved ids, and ids whose
// batch failed, get fallback(id). Only cancellation is returned as an error.
func Resolve[V any](
	ctx context.Context,
	dimension string,
	ids []string,
	lookup LookupFunc[V],
	fallback func(id string) V,
	opts Options,
) (map[string]V, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	distinct := Distinct(ids)
	out := make(map[string]V, len(distinct))
	fallbacks := 0

	for start := 0; start < len(distinct); start += batchSize {
		end := start + batchSize
		if end > len(distinct) {
			end = len(distinct)
		}
		chunk := distinct[start:end]

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: resolving %s: %w", storage.ErrCancelled, dimension, err)
		}

		found, err := lookup(ctx, chunk)
		if err != nil {
			if storage.IsCancelled(ctx, err) {
				return nil, fmt.Errorf("%w: resolving %s: %w", storage.ErrCancelled, dimension, err)
			}
			logger.Warn("[Enrich] Reference lookup failed, using fallback labels",
				"dimension", dimension,
				"batch_size", len(chunk),
				"error", err)
			found = nil
		}

		for _, id := range chunk {
			if v, ok := found[id]; ok {
				out[id] = v
				continue
			}
			out[id] = fallback(id)
			fallbacks++
		}
	}

	opts.Metrics.ObserveFallbacks(dimension, fallbacks)
	if fallbacks > 0 {
		logger.Debug("[Enrich] Unresolved ids labelled with fallback",
			"dimension", dimension,
			"count", fallbacks)
	}
	return out, nil
}

// Distinct returns the sorted distinct non-empty ids.
func Distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
