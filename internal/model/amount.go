package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value as sent by the backend. The backend emits
// amounts either as JSON numbers or as numeric strings; a string that is
// not a number decodes to an invalid Amount instead of failing the whole
// payload.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount returns a valid Amount for v.
func NewAmount(v float64) Amount {
	return Amount{Value: decimal.NewFromFloat(v), Valid: true}
}

// ParseAmount parses a decimal string. Malformed input yields an invalid Amount.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}
	}
	return Amount{Value: d, Valid: true}
}

// MustAmount parses s and panics when it is not a number. Intended for tests
// and constants.
func MustAmount(s string) Amount {
	a := ParseAmount(s)
	if !a.Valid {
		panic(fmt.Sprintf("model: invalid amount %q", s))
	}
	return a
}

// Float returns the amount as a float64, or 0 when invalid.
func (a Amount) Float() float64 {
	if !a.Valid {
		return 0
	}
	f, _ := a.Value.Float64()
	return f
}

// Cmp compares two valid amounts. Callers must handle invalid amounts first.
func (a Amount) Cmp(b Amount) int {
	return a.Value.Cmp(b.Value)
}

// String formats the amount with two decimals, or "NaN" when invalid.
func (a Amount) String() string {
	if !a.Valid {
		return "NaN"
	}
	return a.Value.StringFixed(2)
}

// UnmarshalJSON accepts a number, a numeric string, or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding amount string: %w", err)
		}
		*a = ParseAmount(s)
		return nil
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("decoding amount %s: %w", data, err)
	}
	*a = Amount{Value: d, Valid: true}
	return nil
}

// MarshalJSON encodes a valid amount as a JSON number and an invalid one as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Value.String()), nil
}
