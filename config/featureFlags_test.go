package config

import "testing"

func TestParseTaxBase(t *testing.T) {
	cases := []struct {
		in       string
		expected TaxBase
	}{
		{"", TaxBaseDiscounted},
		{"discounted", TaxBaseDiscounted},
		{" GROSS ", TaxBaseGross},
		{"before_discount", TaxBaseGross},
		{"anything", TaxBaseDiscounted},
	}
	for _, tc := range cases {
		if got := ParseTaxBase(tc.in); got != tc.expected {
			t.Fatalf("ParseTaxBase(%q) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}

func TestGetValuationSettings_ReadsEnv(t *testing.T) {
	t.Setenv("TAX_BASE", "gross")
	if got := GetValuationSettings().TaxBase; got != TaxBaseGross {
		t.Fatalf("expected gross tax base, got %s", got)
	}
}
