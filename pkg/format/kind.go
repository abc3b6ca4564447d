package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Kind selects how a raw value is rendered.
type Kind int

const (
	// Plain stringifies the raw value as-is.
	Plain Kind = iota

	// Fixed renders a number with exactly 4 fractional digits.
	Fixed

	// Percent renders a number with exactly 2 fractional digits and a trailing "%".
	Percent

	// Currency truncates a number toward zero and renders it as "$1,234,567".
	Currency
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Fixed:
		return "fixed"
	case Percent:
		return "percent"
	case Currency:
		return "currency"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Format renders raw with the given kind.
// Null and empty values always yield "", whatever the kind.
func Format(kind Kind, raw any) string {
	if isEmpty(raw) {
		return ""
	}

	if kind == Plain {
		return plain(raw)
	}

	d, ok := parseNumber(raw)
	if !ok {
		return ""
	}

	switch kind {
	case Fixed:
		return fixed(d, 4)
	case Percent:
		if s := fixed(d, 2); s != "" {
			return s + "%"
		}
		return ""
	case Currency:
		return "$" + humanize.BigComma(d.Truncate(0).BigInt())
	default:
		return plain(raw)
	}
}

// fixed rounds the binary float64 value, so halves follow the float's exact
// representation ("2.675" renders as "2.67").
func fixed(d decimal.Decimal, places int) string {
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', places, 64)
}

func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case json.Number:
		return v == ""
	default:
		return false
	}
}

func plain(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// parseNumber is the only place numeric coercion happens.
// ok is false for anything that is not a finite number.
func parseNumber(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case json.Number:
		return parseString(v.String())
	case string:
		return parseString(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case int32:
		return decimal.NewFromInt32(v), true
	case bool:
		if v {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	default:
		return decimal.Decimal{}, false
	}
}

func parseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
