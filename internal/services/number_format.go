package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseLocaleNumber parses numbers typed with either decimal separator.
//
// Rules:
//   - "1.234,56" and "1,234.56": the rightmost separator is the decimal one
//   - "2,5": a lone comma is the decimal separator
//   - "2.5": a lone dot is the decimal separator
//   - currency symbols and spaces are ignored
func ParseLocaleNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return 0, fmt.Errorf("invalid number %q", s)
		}
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		// dot-grouped thousands without decimals, e.g. 1.234.567
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// toFloat converts a loosely typed JSON value to a number, defaulting to 0
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case json.Number:
		f, err := ParseLocaleNumber(n.String())
		return f, err == nil
	case string:
		f, err := ParseLocaleNumber(n)
		return f, err == nil
	case int:
		return float64(n), true
	case bool:
		return 0, false
	}
	return 0, false
}

// RoundMoney rounds a currency value to cents. Only for presentation.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatDecimal renders v with comma decimals and dot thousands, e.g. 1.234,50
func FormatDecimal(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(places)

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	rem := len(intPart) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(intPart[:rem])
	for i := rem; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatMoney renders a currency amount, e.g. "R$ 1.234,50"
func FormatMoney(currency string, v float64) string {
	return strings.TrimSpace(currency + " " + FormatDecimal(v, 2))
}

// LocaleFloat is a number that unmarshals from JSON numbers or locale strings
type LocaleFloat float64

func (f *LocaleFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := ParseLocaleNumber(s)
	if err != nil {
		return err
	}
	*f = LocaleFloat(v)
	return nil
}

// Float64 returns the plain value
func (f LocaleFloat) Float64() float64 {
	return float64(f)
}
