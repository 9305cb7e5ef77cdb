package graph

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUnmarshalDecimal_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"₹ 1,500.50", "1500.5"},
		{"₹1,500", "1500"},
		{"INR -20,000", "-20000"},
		{"-₹ 250", "-250"},
		{"Rs. 20000", "20000"},
		{"  rs 1,234.50  ", "1234.5"},
		{"1,00,000", "100000"},
	}
	for _, tc := range cases {
		d, err := UnmarshalDecimal(tc.in)
		if err != nil {
			t.Fatalf("UnmarshalDecimal(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("UnmarshalDecimal(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestUnmarshalDecimal_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "₹", "12abc", "USD 10", "1.2.3"} {
		if _, err := UnmarshalDecimal(in); err == nil {
			t.Fatalf("UnmarshalDecimal(%q) expected error", in)
		}
	}
	if _, err := UnmarshalDecimal(true); err == nil {
		t.Fatalf("UnmarshalDecimal(bool) expected error")
	}
}

func TestAmount_JSON(t *testing.T) {
	var payload struct {
		Total    Amount `json:"total"`
		Shipping Amount `json:"shipping"`
	}
	if err := json.Unmarshal([]byte(`{"total": "₹ 1,216.50", "shipping": 50.25}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.Total.Decimal().Equal(decimal.RequireFromString("1216.5")) {
		t.Fatalf("total %s", payload.Total.Decimal())
	}
	if !payload.Shipping.Decimal().Equal(decimal.RequireFromString("50.25")) {
		t.Fatalf("shipping %s", payload.Shipping.Decimal())
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"total":1216.5,"shipping":50.25}` {
		t.Fatalf("marshal got %s", out)
	}
}
