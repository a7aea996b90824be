package analytics

import "time"

// Filter is the caller-supplied filter shape shared by every strategy.
// Start and End are calendar dates and both bounds are inclusive.
type Filter struct {
	Start           time.Time
	End             time.Time
	CostCenter      string
	Representatives []string
	Clients         []string
	Products        []string
}

// Strategy names an execution plan for a dashboard query.
type Strategy string

const (
	// StrategySimple uses the pre-aggregation procedure.
	StrategySimple Strategy = "simple"
	// StrategyManual fetches raw paged facts and aggregates in-process.
	StrategyManual Strategy = "manual"
)

// Classify selects the execution strategy for a filter shape.
// The procedure only understands zero-or-one representative and zero-or-one
// cost center, with no client or product predicate.
func Classify(costCenter string, representatives, clients, products []string) Strategy {
	if len(representatives) > 1 || len(clients) > 0 || len(products) > 0 {
		return StrategyManual
	}
	return StrategySimple
}

// Strategy classifies the filter.
func (f Filter) Strategy() Strategy {
	return Classify(f.CostCenter, f.Representatives, f.Clients, f.Products)
}

// Representative returns the single representative of a simple filter, or "".
func (f Filter) Representative() string {
	if len(f.Representatives) == 1 {
		return f.Representatives[0]
	}
	return ""
}
