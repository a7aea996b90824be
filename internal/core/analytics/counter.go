package analytics

// DistinctKeyCounter tracks natural keys (order number, note number) already
// seen so a bucket counts distinct orders/invoices rather than lines.
// The zero value is ready to use.
type DistinctKeyCounter struct {
	seen map[string]struct{}
}

// Add records key and reports whether it was seen for the first time.
// Empty keys cannot be deduplicated and are never counted.
func (c *DistinctKeyCounter) Add(key string) bool {
	if key == "" {
		return false
	}
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys seen.
func (c *DistinctKeyCounter) Len() int {
	return len(c.seen)
}
