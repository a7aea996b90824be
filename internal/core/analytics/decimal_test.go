package analytics

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExtractDecimal(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]interface{}
		field string
		want  decimal.Decimal
	}{
		{
			name:  "empty field name",
			data:  map[string]interface{}{"valor": 1},
			field: "",
			want:  decimal.Zero,
		},
		{
			name:  "missing field",
			data:  map[string]interface{}{"valor": 1},
			field: "missing",
			want:  decimal.Zero,
		},
		{
			name:  "float64",
			data:  map[string]interface{}{"valor": 12.5},
			field: "valor",
			want:  decimal.RequireFromString("12.5"),
		},
		{
			name:  "int64",
			data:  map[string]interface{}{"valor": int64(9)},
			field: "valor",
			want:  decimal.NewFromInt(9),
		},
		{
			name:  "json number",
			data:  map[string]interface{}{"valor": json.Number("1520.75")},
			field: "valor",
			want:  decimal.RequireFromString("1520.75"),
		},
		{
			name:  "numeric string from NUMERIC column",
			data:  map[string]interface{}{"valor": "42.125"},
			field: "valor",
			want:  decimal.RequireFromString("42.125"),
		},
		{
			name:  "invalid string returns zero",
			data:  map[string]interface{}{"valor": "n/a"},
			field: "valor",
			want:  decimal.Zero,
		},
		{
			name:  "unsupported type returns zero",
			data:  map[string]interface{}{"valor": true},
			field: "valor",
			want:  decimal.Zero,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractDecimal(tc.data, tc.field)
			require.True(t, tc.want.Equal(got), "want=%s got=%s", tc.want.String(), got.String())
		})
	}
}

func TestToKey(t *testing.T) {
	require.Equal(t, "", toKey(nil))
	require.Equal(t, "10", toKey("10"))
	require.Equal(t, "10", toKey(float64(10)))
	require.Equal(t, "10", toKey(json.Number("10")))
	require.Equal(t, "7", toKey(7))
}
