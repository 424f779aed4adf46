package eligibility

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Shape is one of the payload layouts the endpoint is known to answer with
// ------------------------------------------------------------------------
type Shape interface {
	isShape()
}

// PrimaryShape is an object carrying an "eligible" key
type PrimaryShape struct {
	Eligible any
}

// FallbackShape is an object carrying "total" and "detail" but no "eligible" key
type FallbackShape struct {
	Total  any
	Detail any
}

// UnknownShape is everything else, including non-object payloads
type UnknownShape struct{}

func (PrimaryShape) isShape()  {}
func (FallbackShape) isShape() {}
func (UnknownShape) isShape()  {}

// DetectShape resolves the layout of a decoded JSON payload. First match wins.
func DetectShape(payload any) Shape {
	obj, ok := payload.(map[string]any)
	if !ok {
		return UnknownShape{}
	}

	if v, ok := obj["eligible"]; ok {
		return PrimaryShape{Eligible: v}
	}

	total, hasTotal := obj["total"]
	detail, hasDetail := obj["detail"]
	if hasTotal && hasDetail {
		return FallbackShape{Total: total, Detail: detail}
	}

	return UnknownShape{}
}

// Classify maps a decoded payload to a record. It never fails; Raw always keeps the payload.
func Classify(address string, payload any) Record {
	rec := Record{
		Address: address,
		Status:  StatusUnknownFormat,
		Raw:     payload,
	}

	switch s := DetectShape(payload).(type) {
	case PrimaryShape:
		rec.Status = StatusNormal
		rec.Eligible = truthy(s.Eligible)
	case FallbackShape:
		rec.Status = StatusFallbackFormat
		if n, ok := parseInteger(s.Total); ok {
			rec.Eligible = n.Sign() > 0
		} else {
			rec.Eligible = truthy(s.Total)
		}
	case UnknownShape:
	}

	return rec
}

// truthy coerces a decoded JSON value to a boolean:
// null and false are false, numbers are true unless zero,
// strings, arrays and objects are true unless empty.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return t != ""
		}
		return f != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// parseInteger reads v as an integer. Booleans count as 1 and 0,
// strings must hold decimal digits with an optional sign and may group
// digits with single underscores, fractional numbers are truncated toward zero.
func parseInteger(v any) (*big.Int, bool) {
	switch t := v.(type) {
	case bool:
		if t {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	case string:
		digits, ok := ungroupDigits(strings.TrimSpace(t))
		if !ok {
			return nil, false
		}
		return new(big.Int).SetString(digits, 10)
	case json.Number:
		if n, ok := new(big.Int).SetString(t.String(), 10); ok {
			return n, true
		}
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return nil, false
		}
		return truncate(f)
	case float64:
		return truncate(t)
	default:
		return nil, false
	}
}

// ungroupDigits drops underscores that sit between two digits, as in "1_000".
// Any other underscore makes the string invalid.
func ungroupDigits(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func truncate(f float64) (*big.Int, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, false
	}
	n, _ := big.NewFloat(math.Trunc(f)).Int(nil)
	return n, true
}
