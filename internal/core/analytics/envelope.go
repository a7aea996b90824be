package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Stat is one row of a series or a dimensional rollup.
type Stat struct {
	Key              string          `json:"key"`
	Label            string          `json:"label"`
	InvoicedTotal    decimal.Decimal `json:"invoicedTotal"`
	InvoiceLineCount int64           `json:"invoiceLineCount"`
	InvoiceCount     int64           `json:"invoiceCount"`
	ItemsInvoiced    decimal.Decimal `json:"itemsInvoiced"`
	OrderedTotal     decimal.Decimal `json:"orderedTotal"`
	OrderCount       int64           `json:"orderCount"`
	ItemsOrdered     decimal.Decimal `json:"itemsOrdered"`
	ItemsDelivered   decimal.Decimal `json:"itemsDelivered"`
	AverageTicket    decimal.Decimal `json:"averageTicket"`
}

// CityStat is a geographic rollup row keyed by "{city}-{uf}".
type CityStat struct {
	Stat
	City  string `json:"city"`
	State string `json:"state"`
}

// SummaryTotals are the headline metrics of a dashboard query.
type SummaryTotals struct {
	InvoicedTotal           decimal.Decimal `json:"invoicedTotal"`
	InvoiceLineCount        int64           `json:"invoiceLineCount"`
	InvoiceCount            int64           `json:"invoiceCount"`
	ItemsInvoiced           decimal.Decimal `json:"itemsInvoiced"`
	OrderedTotal            decimal.Decimal `json:"orderedTotal"`
	OrderCount              int64           `json:"orderCount"`
	ItemsOrdered            decimal.Decimal `json:"itemsOrdered"`
	ItemsDelivered          decimal.Decimal `json:"itemsDelivered"`
	AverageTicket           decimal.Decimal `json:"averageTicket"`
	DistinctClients         int64           `json:"distinctClients"`
	DistinctRepresentatives int64           `json:"distinctRepresentatives"`
}

// TruncatedScan records a scan that did not read its full result set.
type TruncatedScan struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
	Rows   int    `json:"rows"`
}

// DataRangeInfo compares the requested range with the data actually observed.
type DataRangeInfo struct {
	RequestedStart  string          `json:"requestedStart"`
	RequestedEnd    string          `json:"requestedEnd"`
	ObservedStart   string          `json:"observedStart,omitempty"`
	ObservedEnd     string          `json:"observedEnd,omitempty"`
	HasCompleteData bool            `json:"hasCompleteData"`
	TruncatedScans  []TruncatedScan `json:"truncatedScans,omitempty"`
}

// ResultEnvelope is the contract handed to dashboard collaborators.
type ResultEnvelope struct {
	Strategy            Strategy      `json:"strategy"`
	DailySeries         []Stat        `json:"dailySeries"`
	MonthlySeries       []Stat        `json:"monthlySeries"`
	CostCenterStats     []Stat        `json:"costCenterStats"`
	RepresentativeStats []Stat        `json:"representativeStats"`
	CityStats           []CityStat    `json:"cityStats"`
	ClientStats         []Stat        `json:"clientStats"`
	ProductStats        []Stat        `json:"productStats"`
	SummaryTotals       SummaryTotals `json:"summaryTotals"`
	DataRangeInfo       DataRangeInfo `json:"dataRangeInfo"`
}

// NewEmptyEnvelope returns a structurally valid all-zero envelope for f.
func NewEmptyEnvelope(f Filter, strategy Strategy) *ResultEnvelope {
	return &ResultEnvelope{
		Strategy:            strategy,
		DailySeries:         []Stat{},
		MonthlySeries:       []Stat{},
		CostCenterStats:     []Stat{},
		RepresentativeStats: []Stat{},
		CityStats:           []CityStat{},
		ClientStats:         []Stat{},
		ProductStats:        []Stat{},
		DataRangeInfo: DataRangeInfo{
			RequestedStart:  f.Start.Format(DateLayout),
			RequestedEnd:    f.End.Format(DateLayout),
			HasCompleteData: true,
		},
	}
}

// MarkTruncated records a truncated scan and clears HasCompleteData.
func (d *DataRangeInfo) MarkTruncated(source, reason string, rows int) {
	d.HasCompleteData = false
	d.TruncatedScans = append(d.TruncatedScans, TruncatedScan{Source: source, Reason: reason, Rows: rows})
}

// ObservedRange tracks the min/max fact timestamps seen during a call.
type ObservedRange struct {
	min, max time.Time
}

// Observe widens the range to include t.
func (r *ObservedRange) Observe(t time.Time) {
	if t.IsZero() {
		return
	}
	if r.min.IsZero() || t.Before(r.min) {
		r.min = t
	}
	if r.max.IsZero() || t.After(r.max) {
		r.max = t
	}
}

// Apply writes the observed bounds into d.
func (r *ObservedRange) Apply(d *DataRangeInfo) {
	if r.min.IsZero() {
		return
	}
	d.ObservedStart = r.min.Format(DateLayout)
	d.ObservedEnd = r.max.Format(DateLayout)
}

// SortSeriesDesc orders series rows by key, newest first.
func SortSeriesDesc(rows []Stat) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Key > rows[j].Key
	})
}

// SortByInvoicedDesc orders rollup rows by invoiced total, ties by key.
func SortByInvoicedDesc(rows []Stat) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].InvoicedTotal.Cmp(rows[j].InvoicedTotal); c != 0 {
			return c > 0
		}
		return rows[i].Key < rows[j].Key
	})
}

// SortCitiesByInvoicedDesc orders city rows by invoiced total, ties by key.
func SortCitiesByInvoicedDesc(rows []CityStat) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].InvoicedTotal.Cmp(rows[j].InvoicedTotal); c != 0 {
			return c > 0
		}
		return rows[i].Key < rows[j].Key
	})
}

// CityReport is the result of the geographic rollup.
type CityReport struct {
	CityStats     []CityStat    `json:"cityStats"`
	DataRangeInfo DataRangeInfo `json:"dataRangeInfo"`
}
