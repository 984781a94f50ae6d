package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyNoise covers symbols and separators models transcribe verbatim
// from printed invoices.
var currencyNoise = strings.NewReplacer(
	"$", "", "€", "", "£", "", "₹", "", "¥", "",
	",", "", " ", "", " ", "",
)

// parseMoneyMinor converts a raw JSON money value (number or printed string)
// into integer minor units. A JSON null or empty string yields nil.
func parseMoneyMinor(raw json.RawMessage) (*int64, error) {
	s, ok, err := rawScalar(raw)
	if err != nil || !ok {
		return nil, err
	}

	s = strings.TrimSpace(currencyNoise.Replace(s))
	if s == "" {
		return nil, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("unparseable amount %q", s)
	}
	if negative {
		d = d.Neg()
	}

	minor := d.Shift(2).Round(0).IntPart()
	return &minor, nil
}

// parseQuantity converts a raw JSON quantity (number or string) to float64.
func parseQuantity(raw json.RawMessage) (float64, error) {
	s, ok, err := rawScalar(raw)
	if err != nil || !ok {
		return 0, err
	}
	s = strings.TrimSpace(currencyNoise.Replace(s))
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("unparseable quantity %q", s)
	}
	f, _ := d.Float64()
	return f, nil
}

// rawScalar normalizes a raw JSON value to its text form. ok is false for
// null, absent, and empty values.
func rawScalar(raw json.RawMessage) (string, bool, error) {
	if len(raw) == 0 {
		return "", false, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, fmt.Errorf("unparseable value %s", trimmed)
		}
		if strings.TrimSpace(s) == "" {
			return "", false, nil
		}
		return s, true, nil
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "", false, fmt.Errorf("expected scalar, got %s", trimmed[:1])
	}
	return trimmed, true, nil
}
