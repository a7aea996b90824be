package analytics

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Logical sections of the pre-aggregation procedure response.
const (
	SectionDaily           = "daily"
	SectionMonthly         = "monthly"
	SectionTotals          = "totals"
	SectionCostCenters     = "cost_centers"
	SectionRepresentatives = "representatives"
)

// Logical fields of the pre-aggregation procedure rows.
const (
	FieldDate                    = "date"
	FieldMonth                   = "month"
	FieldCostCenter              = "cost_center"
	FieldRepresentativeID        = "representative_id"
	FieldInvoicedTotal           = "invoiced_total"
	FieldInvoiceLineCount        = "invoice_line_count"
	FieldInvoiceCount            = "invoice_count"
	FieldItemsInvoiced           = "items_invoiced"
	FieldOrderedTotal            = "ordered_total"
	FieldOrderCount              = "order_count"
	FieldItemsOrdered            = "items_ordered"
	FieldItemsDelivered          = "items_delivered"
	FieldDistinctClients         = "distinct_clients"
	FieldDistinctRepresentatives = "distinct_representatives"
)

var (
	requiredSections = []string{SectionDaily, SectionMonthly, SectionTotals, SectionCostCenters, SectionRepresentatives}
	requiredFields   = []string{
		FieldDate, FieldMonth, FieldCostCenter, FieldRepresentativeID,
		FieldInvoicedTotal, FieldInvoiceLineCount, FieldItemsInvoiced,
		FieldOrderedTotal, FieldOrderCount, FieldItemsOrdered,
	}
)

//go:embed response_schema.yaml
var defaultResponseSchema []byte

// ResponseSchema maps logical response fields to an ordered list of candidate
// keys. Probing is deterministic: the first candidate present in a row wins.
type ResponseSchema struct {
	Version     int
	Sections    map[string][]string
	Fields      map[string][]string
	Fingerprint string // SHA-256 of the raw YAML
}

type rawResponseSchema struct {
	Version  int                 `yaml:"version"`
	Sections map[string][]string `yaml:"sections"`
	Fields   map[string][]string `yaml:"fields"`
}

// ParseResponseSchema parses and validates a YAML response schema.
func ParseResponseSchema(data []byte) (*ResponseSchema, error) {
	var raw rawResponseSchema
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing response schema: %w", err)
	}
	if raw.Version <= 0 {
		return nil, fmt.Errorf("response schema: version must be > 0")
	}
	for _, name := range requiredSections {
		if len(raw.Sections[name]) == 0 {
			return nil, fmt.Errorf("response schema v%d: section %q has no candidates", raw.Version, name)
		}
	}
	for _, name := range requiredFields {
		if len(raw.Fields[name]) == 0 {
			return nil, fmt.Errorf("response schema v%d: field %q has no candidates", raw.Version, name)
		}
	}

	return &ResponseSchema{
		Version:     raw.Version,
		Sections:    raw.Sections,
		Fields:      raw.Fields,
		Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
	}, nil
}

// LoadResponseSchema reads a schema from path, or returns the embedded default
// when path is empty.
func LoadResponseSchema(path string) (*ResponseSchema, error) {
	if path == "" {
		return ParseResponseSchema(defaultResponseSchema)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading response schema %s: %w", path, err)
	}
	return ParseResponseSchema(data)
}

// DefaultResponseSchema returns the embedded schema. It panics if the embedded
// file is invalid, which is a build defect.
func DefaultResponseSchema() *ResponseSchema {
	s, err := ParseResponseSchema(defaultResponseSchema)
	if err != nil {
		panic(err)
	}
	return s
}

// Section returns the first present candidate of a top-level section.
func (s *ResponseSchema) Section(obj map[string]interface{}, section string) (interface{}, bool) {
	return probe(obj, s.Sections[section])
}

// Rows returns a section as a list of objects; non-object entries are skipped.
func (s *ResponseSchema) Rows(obj map[string]interface{}, section string) []map[string]interface{} {
	v, ok := s.Section(obj, section)
	if !ok {
		return nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if row, ok := item.(map[string]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// Lookup returns the value of the first candidate key present for field.
func (s *ResponseSchema) Lookup(row map[string]interface{}, field string) (interface{}, bool) {
	return probe(row, s.Fields[field])
}

// Decimal reads a numeric field; missing or malformed values are zero.
func (s *ResponseSchema) Decimal(row map[string]interface{}, field string) decimal.Decimal {
	key, _ := resolveKey(row, s.Fields[field])
	return ExtractDecimal(row, key)
}

// Int reads a counter field, truncating fractional values.
func (s *ResponseSchema) Int(row map[string]interface{}, field string) int64 {
	return s.Decimal(row, field).IntPart()
}

// String reads an identifier or label field.
func (s *ResponseSchema) String(row map[string]interface{}, field string) string {
	v, ok := s.Lookup(row, field)
	if !ok {
		return ""
	}
	return toKey(v)
}

func probe(obj map[string]interface{}, candidates []string) (interface{}, bool) {
	key, ok := resolveKey(obj, candidates)
	if !ok {
		return nil, false
	}
	return obj[key], true
}

// resolveKey returns the first candidate key present in obj with a non-null value.
func resolveKey(obj map[string]interface{}, candidates []string) (string, bool) {
	for _, key := range candidates {
		if v, ok := obj[key]; ok && v != nil {
			return key, true
		}
	}
	return "", false
}
