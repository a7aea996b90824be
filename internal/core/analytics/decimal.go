package analytics

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ExtractDecimal pulls a numeric value from a decoded JSON object by field name.
// Returns decimal.Zero if the field is missing, empty, or not a recognized numeric type.
// JSON numbers unmarshal to float64 (or json.Number with UseNumber); numeric
// strings are accepted because the procedure renders NUMERIC columns as text.
func ExtractDecimal(data map[string]interface{}, field string) decimal.Decimal {
	if field == "" {
		return decimal.Zero
	}
	v, ok := data[field]
	if !ok {
		return decimal.Zero
	}
	return toDecimal(v)
}

func toDecimal(v interface{}) decimal.Decimal {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt(int64(val))
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err == nil {
			return d
		}
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

// toKey renders an identifier value (string or number) as a string key.
func toKey(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}
