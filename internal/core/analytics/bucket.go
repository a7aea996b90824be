package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Bucket accumulates invoice and order metrics for one dimension value.
// Invoice rows are summed line by line; order rows add to OrderCount only the
// first time their order number is seen within this bucket.
type Bucket struct {
	Key string

	InvoicedTotal    decimal.Decimal
	InvoiceLineCount int64
	InvoiceCount     int64 // distinct note numbers
	ItemsInvoiced    decimal.Decimal

	OrderedTotal   decimal.Decimal
	OrderCount     int64 // distinct order numbers
	ItemsOrdered   decimal.Decimal
	ItemsDelivered decimal.Decimal

	notes  DistinctKeyCounter
	orders DistinctKeyCounter
}

// NewBucket returns an empty bucket for key.
func NewBucket(key string) *Bucket {
	return &Bucket{Key: key}
}

// AddInvoice folds one invoice line into the bucket.
func (b *Bucket) AddInvoice(value, quantity decimal.Decimal, noteNumber string) {
	b.InvoicedTotal = b.InvoicedTotal.Add(value)
	b.InvoiceLineCount++
	b.ItemsInvoiced = b.ItemsInvoiced.Add(quantity)
	if b.notes.Add(noteNumber) {
		b.InvoiceCount++
	}
}

// AddOrder folds one order line into the bucket.
func (b *Bucket) AddOrder(value, quantityOrdered, quantityDelivered decimal.Decimal, orderNumber string) {
	b.OrderedTotal = b.OrderedTotal.Add(value)
	b.ItemsOrdered = b.ItemsOrdered.Add(quantityOrdered)
	b.ItemsDelivered = b.ItemsDelivered.Add(quantityDelivered)
	if b.orders.Add(orderNumber) {
		b.OrderCount++
	}
}

// Merge sums other into b. Distinct counts are added, which is exact only when
// the two buckets cannot share a natural key (e.g. different persons).
func (b *Bucket) Merge(other *Bucket) {
	if other == nil {
		return
	}
	b.InvoicedTotal = b.InvoicedTotal.Add(other.InvoicedTotal)
	b.InvoiceLineCount += other.InvoiceLineCount
	b.InvoiceCount += other.InvoiceCount
	b.ItemsInvoiced = b.ItemsInvoiced.Add(other.ItemsInvoiced)
	b.OrderedTotal = b.OrderedTotal.Add(other.OrderedTotal)
	b.OrderCount += other.OrderCount
	b.ItemsOrdered = b.ItemsOrdered.Add(other.ItemsOrdered)
	b.ItemsDelivered = b.ItemsDelivered.Add(other.ItemsDelivered)
}

// AverageTicket returns InvoicedTotal / ItemsInvoiced, or zero when no items were invoiced.
func (b *Bucket) AverageTicket() decimal.Decimal {
	return AverageTicket(b.InvoicedTotal, b.ItemsInvoiced)
}

// Stat converts the bucket to its output row.
func (b *Bucket) Stat(label string) Stat {
	return Stat{
		Key:              b.Key,
		Label:            label,
		InvoicedTotal:    b.InvoicedTotal,
		InvoiceLineCount: b.InvoiceLineCount,
		InvoiceCount:     b.InvoiceCount,
		ItemsInvoiced:    b.ItemsInvoiced,
		OrderedTotal:     b.OrderedTotal,
		OrderCount:       b.OrderCount,
		ItemsOrdered:     b.ItemsOrdered,
		ItemsDelivered:   b.ItemsDelivered,
		AverageTicket:    b.AverageTicket(),
	}
}

// AverageTicket computes the ticket médio with a divide-by-zero guard.
func AverageTicket(invoicedTotal, itemsInvoiced decimal.Decimal) decimal.Decimal {
	if !itemsInvoiced.IsPositive() {
		return decimal.Zero
	}
	return invoicedTotal.Div(itemsInvoiced)
}

// BucketSet is a call-local map of buckets for one dimension.
type BucketSet map[string]*Bucket

// Get returns the bucket for key, creating it on first use.
func (s BucketSet) Get(key string) *Bucket {
	b, ok := s[key]
	if !ok {
		b = NewBucket(key)
		s[key] = b
	}
	return b
}

// Keys returns the bucket keys in ascending order.
func (s BucketSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats converts the set to rows labelled by labelFn (nil → key).
func (s BucketSet) Stats(labelFn func(key string) string) []Stat {
	out := make([]Stat, 0, len(s))
	for _, key := range s.Keys() {
		label := key
		if labelFn != nil {
			label = labelFn(key)
		}
		out = append(out, s[key].Stat(label))
	}
	return out
}
