package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel labels for dimension values the source could not identify.
const (
	UnidentifiedLabel = "Não identificado"
	UnidentifiedRepID = "0"

	UndefinedCity  = "Indefinido"
	UndefinedState = ""
)

// DateLayout is the ISO date format used for daily bucket keys and query params.
const DateLayout = "2006-01-02"

// MonthLayout keys the monthly series.
const MonthLayout = "2006-01"

// InvoiceFact is one invoiced line item (faturamento).
// NoteNumber groups lines of the same invoice and is NOT unique per row.
type InvoiceFact struct {
	EmittedAt        time.Time
	Value            decimal.Decimal // stored line total
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	CostCenter       string // "" when the source had NULL
	RepresentativeID string // "" or "0" when the source had NULL/0
	ClientID         string
	ItemCode         string
	NoteNumber       string
	Status           string
}

// OrderFact is one ordered line item (pedido).
// OrderNumber is the dedup key: many lines share one order.
type OrderFact struct {
	OrderedAt         time.Time
	UnitPrice         decimal.Decimal
	QuantityOrdered   decimal.Decimal
	QuantityDelivered decimal.Decimal
	TotalProduct      decimal.Decimal
	CostCenter        string
	RepresentativeID  string
	ClientID          string
	ItemCode          string
	OrderNumber       string
	Status            string
}

// Location is the geographic reference of a person (client).
type Location struct {
	City  string
	State string
}

// Key returns the "{city}-{uf}" bucket key.
func (l Location) Key() string {
	return l.City + "-" + l.State
}

// UndefinedLocation is used for persons without a resolvable city.
var UndefinedLocation = Location{City: UndefinedCity, State: UndefinedState}

// NormalizeCostCenter maps a missing cost center to the sentinel label.
func NormalizeCostCenter(cc string) string {
	if cc == "" {
		return UnidentifiedLabel
	}
	return cc
}

// NormalizeRepresentativeID maps a NULL/empty/zero representative id to "0".
func NormalizeRepresentativeID(id string) string {
	if id == "" || id == UnidentifiedRepID {
		return UnidentifiedRepID
	}
	return id
}
