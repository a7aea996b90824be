package projection

import (
	"strings"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
)

// DashboardQuery is a dashboard request before validation.
type DashboardQuery struct {
	Start           time.Time
	End             time.Time
	CostCenter      string
	Representatives []string
	Clients         []string
	Products        []string
	IncludeCities   bool
}

// dashboardParams binds the query string of the dashboard endpoints.
// Id lists accept repeated parameters and comma-separated values.
type dashboardParams struct {
	Start           time.Time `form:"start" time_format:"2006-01-02" time_utc:"1"`
	End             time.Time `form:"end" time_format:"2006-01-02" time_utc:"1"`
	CostCenter      string    `form:"cost_center"`
	Representatives []string  `form:"representative"`
	Clients         []string  `form:"client"`
	Products        []string  `form:"product"`
	Cities          bool      `form:"cities"`
}

func (p dashboardParams) query() DashboardQuery {
	return DashboardQuery{
		Start:           p.Start,
		End:             p.End,
		CostCenter:      p.CostCenter,
		Representatives: splitValues(p.Representatives),
		Clients:         splitValues(p.Clients),
		Products:        splitValues(p.Products),
		IncludeCities:   p.Cities,
	}
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// filter converts a validated query into the engine filter.
func (q DashboardQuery) filter() analytics.Filter {
	return analytics.Filter{
		Start:           q.Start,
		End:             q.End,
		CostCenter:      q.CostCenter,
		Representatives: q.Representatives,
		Clients:         q.Clients,
		Products:        q.Products,
	}
}
