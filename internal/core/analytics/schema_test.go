package analytics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDefaultResponseSchema_Loads(t *testing.T) {
	s := DefaultResponseSchema()
	require.Equal(t, 2, s.Version)
	require.NotEmpty(t, s.Fingerprint)
	require.NotEmpty(t, s.Fields[FieldInvoicedTotal])
}

func TestResponseSchema_FirstCandidateWins(t *testing.T) {
	s := DefaultResponseSchema()

	snake := map[string]interface{}{"data": "2024-01-01", "total_faturado": "250.00", "linhas_faturadas": float64(2)}
	camel := map[string]interface{}{"dia": "2024-01-01", "totalFaturado": float64(250), "linhasFaturadas": float64(2)}
	both := map[string]interface{}{"total_faturado": "1", "totalFaturado": "2"}

	require.Equal(t, "2024-01-01", s.String(snake, FieldDate))
	require.Equal(t, "2024-01-01", s.String(camel, FieldDate))
	require.True(t, dec("250").Equal(s.Decimal(snake, FieldInvoicedTotal)))
	require.True(t, dec("250").Equal(s.Decimal(camel, FieldInvoicedTotal)))
	require.Equal(t, int64(2), s.Int(camel, FieldInvoiceLineCount))
	require.True(t, dec("1").Equal(s.Decimal(both, FieldInvoicedTotal)))
}

func TestResponseSchema_NullValuesFallThrough(t *testing.T) {
	s := DefaultResponseSchema()
	row := map[string]interface{}{"total_faturado": nil, "totalFaturado": "9"}
	require.True(t, dec("9").Equal(s.Decimal(row, FieldInvoicedTotal)))
}

func TestResponseSchema_DecimalMissingOrMalformed(t *testing.T) {
	s := DefaultResponseSchema()

	require.True(t, decimal.Zero.Equal(s.Decimal(map[string]interface{}{}, FieldInvoicedTotal)))
	require.True(t, decimal.Zero.Equal(s.Decimal(map[string]interface{}{"total_faturado": nil}, FieldInvoicedTotal)))
	require.True(t, decimal.Zero.Equal(s.Decimal(map[string]interface{}{"total_faturado": "n/a"}, FieldInvoicedTotal)))
	require.True(t, dec("1520.75").Equal(s.Decimal(map[string]interface{}{"totalFaturado": json.Number("1520.75")}, FieldInvoicedTotal)))
	require.True(t, decimal.Zero.Equal(s.Decimal(map[string]interface{}{"total_faturado": "1"}, "unknown_field")))
}

func TestResponseSchema_RowsSkipsNonObjects(t *testing.T) {
	s := DefaultResponseSchema()
	resp := map[string]interface{}{
		"dadosDiarios": []interface{}{
			map[string]interface{}{"data": "2024-01-01"},
			"garbage",
			float64(3),
		},
	}
	rows := s.Rows(resp, SectionDaily)
	require.Len(t, rows, 1)

	require.Nil(t, s.Rows(map[string]interface{}{"daily": "not-a-list"}, SectionDaily))
	require.Nil(t, s.Rows(map[string]interface{}{}, SectionDaily))
}

func TestParseResponseSchema_Validation(t *testing.T) {
	_, err := ParseResponseSchema([]byte(`version: 0`))
	require.Error(t, err)

	_, err = ParseResponseSchema([]byte(`
version: 3
sections:
  daily: [daily]
`))
	require.ErrorContains(t, err, "section")

	_, err = ParseResponseSchema([]byte(`: not yaml :`))
	require.Error(t, err)
}

func TestLoadResponseSchema_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, defaultResponseSchema, 0o644))

	s, err := LoadResponseSchema(path)
	require.NoError(t, err)
	require.Equal(t, DefaultResponseSchema().Fingerprint, s.Fingerprint)

	_, err = LoadResponseSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
