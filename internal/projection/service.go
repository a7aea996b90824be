package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	"github.com/atacado-lab/sales-analytics/internal/core/storage"
	"github.com/atacado-lab/sales-analytics/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const strategyCities = "cities"

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid dashboard query")

// Aggregator produces a dashboard envelope for a filter.
type Aggregator interface {
	Aggregate(ctx context.Context, f analytics.Filter) (*analytics.ResultEnvelope, error)
}

// CityRollup produces the geographic rollup for a filter.
type CityRollup interface {
	Aggregate(ctx context.Context, f analytics.Filter) (*analytics.CityReport, error)
}

// Options configures a Service.
type Options struct {
	// MaxRangeDays bounds the inclusive date range of a query. Zero disables the check.
	MaxRangeDays int
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Service implements the query layer: it validates a dashboard query, picks the
// execution strategy and runs it.
type Service struct {
	strategies   map[analytics.Strategy]Aggregator
	cities       CityRollup
	maxRangeDays int
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// NewService creates a new projection service. simple serves filters the
// pre-aggregation procedure understands; manual serves everything else.
func NewService(simple, manual Aggregator, cities CityRollup, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		strategies: map[analytics.Strategy]Aggregator{
			analytics.StrategySimple: simple,
			analytics.StrategyManual: manual,
		},
		cities:       cities,
		maxRangeDays: opts.MaxRangeDays,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

// Dashboard runs the query on the strategy its filter shape selects. With
// IncludeCities the geographic rollup runs beside it and is merged in.
func (s *Service) Dashboard(ctx context.Context, q DashboardQuery) (*analytics.ResultEnvelope, error) {
	started := time.Now()

	q, err := s.normalizeAndValidate(q)
	if err != nil {
		s.metrics.ObserveDispatch("unclassified", metrics.OutcomeInvalid, time.Since(started))
		return nil, err
	}

	f := q.filter()
	strategy := f.Strategy()
	agg := s.strategies[strategy]
	if agg == nil {
		return nil, fmt.Errorf("no aggregator registered for strategy %s", strategy)
	}

	var (
		env    *analytics.ResultEnvelope
		report *analytics.CityReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		env, err = agg.Aggregate(gctx, f)
		if err != nil {
			return fmt.Errorf("dashboard (%s): %w", strategy, err)
		}
		return nil
	})
	if q.IncludeCities && s.cities != nil {
		g.Go(func() error {
			var err error
			report, err = s.cities.Aggregate(gctx, f)
			if err != nil {
				return fmt.Errorf("dashboard (%s): %w", strategyCities, err)
			}
			return nil
		})
	}

	err = g.Wait()
	s.metrics.ObserveDispatch(string(strategy), outcomeOf(err), time.Since(started))
	if err != nil {
		s.logger.Warn("[Dashboard] Query failed",
			"strategy", strategy,
			"start", f.Start.Format(analytics.DateLayout),
			"end", f.End.Format(analytics.DateLayout),
			"error", err,
		)
		return nil, err
	}

	env.Strategy = strategy
	if report != nil {
		mergeCities(env, report)
	}

	s.logger.Info("[Dashboard] Query served",
		"strategy", strategy,
		"representatives", len(f.Representatives),
		"clients", len(f.Clients),
		"products", len(f.Products),
		"complete", env.DataRangeInfo.HasCompleteData,
		"duration", time.Since(started),
	)
	return env, nil
}

// Cities runs only the geographic rollup.
func (s *Service) Cities(ctx context.Context, q DashboardQuery) (*analytics.CityReport, error) {
	started := time.Now()

	q, err := s.normalizeAndValidate(q)
	if err != nil {
		s.metrics.ObserveDispatch(strategyCities, metrics.OutcomeInvalid, time.Since(started))
		return nil, err
	}
	if s.cities == nil {
		return nil, errors.New("city aggregation is not configured")
	}

	report, err := s.cities.Aggregate(ctx, q.filter())
	s.metrics.ObserveDispatch(strategyCities, outcomeOf(err), time.Since(started))
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) normalizeAndValidate(q DashboardQuery) (DashboardQuery, error) {
	if q.Start.IsZero() {
		return q, invalidQueryf("start is required")
	}
	if q.End.IsZero() {
		return q, invalidQueryf("end is required")
	}

	q.Start = calendarDate(q.Start)
	q.End = calendarDate(q.End)
	if q.End.Before(q.Start) {
		return q, invalidQueryf("end date must not be before start date")
	}
	if s.maxRangeDays > 0 {
		days := int(q.End.Sub(q.Start).Hours()/24) + 1
		if days > s.maxRangeDays {
			return q, invalidQueryf("date range spans %d days (max %d)", days, s.maxRangeDays)
		}
	}

	q.CostCenter = strings.TrimSpace(q.CostCenter)
	q.Representatives = cleanIDs(q.Representatives)
	q.Clients = cleanIDs(q.Clients)
	q.Products = cleanIDs(q.Products)
	return q, nil
}

// mergeCities copies the city rollup into env, carrying over its truncations.
func mergeCities(env *analytics.ResultEnvelope, report *analytics.CityReport) {
	env.CityStats = report.CityStats
	if env.CityStats == nil {
		env.CityStats = []analytics.CityStat{}
	}
	for _, ts := range report.DataRangeInfo.TruncatedScans {
		env.DataRangeInfo.MarkTruncated("cities/"+ts.Source, ts.Reason, ts.Rows)
	}
	if !report.DataRangeInfo.HasCompleteData {
		env.DataRangeInfo.HasCompleteData = false
	}
}

// cleanIDs trims ids and drops blanks and duplicates, keeping first-seen order.
func cleanIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrInvalidQuery):
		return metrics.OutcomeInvalid
	case errors.Is(err, storage.ErrCancelled):
		return metrics.OutcomeCancelled
	case errors.Is(err, storage.ErrSourceUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
