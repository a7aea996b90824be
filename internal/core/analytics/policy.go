package analytics

import "github.com/shopspring/decimal"

// Supported line value policies for invoice rows.
const (
	// LineValueComputed prefers quantity × unit price when the unit price is
	// positive and falls back to the stored total. The stored total can disagree
	// with the line computation; this reproduces the dashboard's historic figures.
	LineValueComputed = "computed"
	// LineValueStored always uses the stored line total.
	LineValueStored = "stored"
)

// LineValuePolicy decides the monetary value of an invoice line.
// To add a policy: implement this interface and register it in LineValuePolicies.
type LineValuePolicy interface {
	InvoiceValue(f InvoiceFact) decimal.Decimal
}

// LineValuePolicies is the registry of supported invoice line value policies.
var LineValuePolicies = map[string]LineValuePolicy{
	LineValueComputed: computedLineValue{},
	LineValueStored:   storedLineValue{},
}

// ValidLineValuePolicy reports whether name is a registered policy.
func ValidLineValuePolicy(name string) bool {
	_, ok := LineValuePolicies[name]
	return ok
}

// LookupLineValuePolicy returns the named policy, defaulting to LineValueComputed.
func LookupLineValuePolicy(name string) LineValuePolicy {
	if p, ok := LineValuePolicies[name]; ok {
		return p
	}
	return computedLineValue{}
}

type computedLineValue struct{}

func (computedLineValue) InvoiceValue(f InvoiceFact) decimal.Decimal {
	if f.UnitPrice.IsPositive() {
		return f.Quantity.Mul(f.UnitPrice)
	}
	return f.Value
}

type storedLineValue struct{}

func (storedLineValue) InvoiceValue(f InvoiceFact) decimal.Decimal { return f.Value }

// OrderValue is the monetary value of an order line: the stored product total
// when positive, else quantity ordered × unit price.
func OrderValue(f OrderFact) decimal.Decimal {
	if f.TotalProduct.IsPositive() {
		return f.TotalProduct
	}
	return f.QuantityOrdered.Mul(f.UnitPrice)
}
