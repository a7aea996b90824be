package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/atacado-lab/sales-analytics/internal/metrics"
)

const (
	// DefaultPageSize is the row window requested per page.
	DefaultPageSize = 1000
	// DefaultHardCap bounds the rows accumulated by one scan.
	DefaultHardCap = 100000
)

// PageErrorPolicy decides what a scan does when a page request fails.
type PageErrorPolicy string

const (
	// PageErrorFail propagates the error and discards rows already read.
	PageErrorFail PageErrorPolicy = "fail"
	// PageErrorTruncate keeps rows already read and marks the result truncated.
	PageErrorTruncate PageErrorPolicy = "truncate"
)

// Valid reports whether p is a known policy.
func (p PageErrorPolicy) Valid() bool {
	return p == PageErrorFail || p == PageErrorTruncate
}

// Truncation reasons.
const (
	ReasonHardCap   = "hard_cap"
	ReasonPageError = "page_error"
)

// PageFunc fetches one window of rows. The filter predicate is captured by the
// closure so it is pushed down with every page request.
type PageFunc[T any] func(ctx context.Context, page storage.Page) ([]T, error)

// Options configure a scan.
type Options struct {
	Source      string // label for logs and metrics, e.g. "invoices"
	PageSize    int
	HardCap     int // 0 disables the cap
	OnPageError PageErrorPolicy
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Result is the outcome of a scan.
type Result[T any] struct {
	Rows      []T
	Pages     int
	Truncated bool
	Reason    string // set when Truncated
}

// FetchAll drains a paginated source sequentially. It stops on the first page
// shorter than the requested window or when HardCap rows have been read.
//
// A done ctx always yields storage.ErrCancelled. Any other page failure either
// fails the scan with storage.ErrSourceUnavailable or, under
// PageErrorTruncate, returns the rows read so far with Truncated set.
func FetchAll[T any](ctx context.Context, fetch PageFunc[T], opts Options) (Result[T], error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	started := time.Now()
	var res Result[T]
	offset := 0

	for {
		if err := ctx.Err(); err != nil {
			return Result[T]{}, fmt.Errorf("%w: %s scan after %d pages: %w", storage.ErrCancelled, opts.Source, res.Pages, err)
		}

		limit := pageSize
		if opts.HardCap > 0 {
			if remaining := opts.HardCap - len(res.Rows); remaining < limit {
				limit = remaining
			}
		}

		rows, err := fetch(ctx, storage.Page{Offset: offset, Limit: limit})
		if err != nil {
			if storage.IsCancelled(ctx, err) {
				return Result[T]{}, fmt.Errorf("%w: %s scan at offset %d: %w", storage.ErrCancelled, opts.Source, offset, err)
			}
			if opts.OnPageError == PageErrorTruncate {
				logger.Warn("[Scan] Page failed, returning partial rows",
					"source", opts.Source,
					"offset", offset,
					"rows", len(res.Rows),
					"error", err)
				res.Truncated = true
				res.Reason = ReasonPageError
				opts.Metrics.ObserveScan(opts.Source, time.Since(started), res.Reason)
				return res, nil
			}
			return Result[T]{}, fmt.Errorf("%w: %s page at offset %d: %w", storage.ErrSourceUnavailable, opts.Source, offset, err)
		}

		if len(rows) > limit {
			rows = rows[:limit]
		}
		res.Rows = append(res.Rows, rows...)
		res.Pages++
		offset += len(rows)
		opts.Metrics.ObservePage(opts.Source, len(rows))

		if len(rows) < limit {
			break
		}
		if opts.HardCap > 0 && len(res.Rows) >= opts.HardCap {
			res.Truncated = true
			res.Reason = ReasonHardCap
			logger.Warn("[Scan] Hard cap reached, result truncated",
				"source", opts.Source,
				"hard_cap", opts.HardCap,
				"pages", res.Pages)
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return Result[T]{}, fmt.Errorf("%w: %s scan: %w", storage.ErrCancelled, opts.Source, err)
	}

	opts.Metrics.ObserveScan(opts.Source, time.Since(started), res.Reason)
	logger.Debug("[Scan] Completed",
		"source", opts.Source,
		"pages", res.Pages,
		"rows", len(res.Rows),
		"truncated", res.Truncated,
		"duration_ms", time.Since(started).Milliseconds())
	return res, nil
}
