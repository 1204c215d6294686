package domain

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// numericFields lists the decimal-valued JSON fields of each record category
var numericFields = map[Category][]string{
	CategoryCash:       {"amount"},
	CategoryStocks:     {"shares", "purchasePrice", "currentPrice"},
	CategoryCrypto:     {"amount", "currentPrice"},
	CategoryBonds:      {"amount", "maturityValue"},
	CategoryOther:      {"currentValue"},
	CategoryProperties: {"currentValue", "mortgage"},
	CategoryLifestyle:  {"currentValue"},
}

// coerceNumbers rewrites every unreadable numeric field of a JSON record to 0
// and returns the names of the fields it replaced.
func coerceNumbers(c Category, data []byte) ([]byte, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, err
	}

	var coerced []string
	for _, name := range numericFields[c] {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var n Number
		_ = n.UnmarshalJSON(raw)
		if n.Invalid {
			fields[name] = json.RawMessage("0")
			coerced = append(coerced, name)
		}
	}
	if len(coerced) == 0 {
		return data, nil, nil
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, err
	}
	return out, coerced, nil
}

// Number is a loosely typed numeric field decoded from externally written JSON.
// Decoding never fails: null leaves the field missing, and anything that is
// not a number (or a numeric string) is kept as an invalid zero.
type Number struct {
	Value   decimal.Decimal
	Present bool
	Invalid bool
}

// NewNumber returns a present, valid Number
func NewNumber(v float64) Number {
	return Number{Value: decimal.NewFromFloat(v), Present: true}
}

// Decimal returns the value, zero when missing or invalid
func (n Number) Decimal() decimal.Decimal {
	if !n.Present || n.Invalid {
		return decimal.Zero
	}
	return n.Value
}

// Valid reports whether the field holds a usable value
func (n Number) Valid() bool {
	return n.Present && !n.Invalid
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*n = Number{}
		return nil
	}
	raw = bytes.Trim(raw, `"`)
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		*n = Number{Present: true, Invalid: true}
		return nil
	}
	*n = Number{Value: d, Present: true}
	return nil
}

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Present || n.Invalid {
		return []byte("null"), nil
	}
	return []byte(n.Value.String()), nil
}
