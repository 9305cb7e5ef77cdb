package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/shopspring/decimal"
)

func MarshalDecimal(d decimal.Decimal) graphql.Marshaler {
	return graphql.WriterFunc(func(w io.Writer) {
		w.Write([]byte(d.String()))
	})
}

// currency markers users type in front of amounts, lower case
var currencyPrefixes = []string{"inr", "rs.", "rs", "₹"}

func UnmarshalDecimal(i interface{}) (decimal.Decimal, error) {
	switch v := i.(type) {
	case string:
		// Accept common user-formatted strings like:
		// - "20,000"
		// - "₹ 1,500.50"
		// - "INR -20,000"
		// - "Rs. 20000"
		s := strings.TrimSpace(v)
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		}
		s = stripCurrency(s)
		if strings.HasPrefix(s, "-") {
			neg = !neg
			s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		}
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, " ", "")
		if s == "" {
			return decimal.Zero, fmt.Errorf("invalid value")
		}
		for _, r := range s {
			if (r < '0' || r > '9') && r != '.' {
				return decimal.Zero, fmt.Errorf("invalid value %q", v)
			}
		}
		if neg {
			s = "-" + s
		}
		return decimal.NewFromString(s)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Zero, fmt.Errorf("invalid value")
	}
}

func stripCurrency(s string) string {
	for {
		lower := strings.ToLower(s)
		stripped := false
		for _, p := range currencyPrefixes {
			if strings.HasPrefix(lower, p) {
				s = strings.TrimSpace(s[len(p):])
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// Amount is a decimal input that also accepts user formatted strings.
// It serializes as a bare JSON number.
type Amount decimal.Decimal

func (a Amount) Decimal() decimal.Decimal {
	return decimal.Decimal(a)
}

func (a Amount) MarshalGQL(w io.Writer) {
	MarshalDecimal(decimal.Decimal(a)).MarshalGQL(w)
}

func (a *Amount) UnmarshalGQL(v interface{}) error {
	d, err := UnmarshalDecimal(v)
	if err != nil {
		return err
	}
	*a = Amount(d)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	a.MarshalGQL(&buf)
	return buf.Bytes(), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Amount(decimal.Zero)
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return a.UnmarshalGQL(v)
}
