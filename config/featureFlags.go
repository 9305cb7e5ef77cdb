package config

import (
	"os"
	"strings"
)

// TaxBase selects the amount a line's tax rate is applied to.
// Documents historically disagreed on this, so it is a setting rather than a constant.
type TaxBase string

const (
	// TaxBaseDiscounted taxes the line amount after its discount.
	TaxBaseDiscounted TaxBase = "discounted"
	// TaxBaseGross taxes quantity*rate before the discount.
	TaxBaseGross TaxBase = "gross"
)

// ValuationSettings are the engine knobs read from the environment.
type ValuationSettings struct {
	TaxBase TaxBase
}

// GetValuationSettings reads:
// - TAX_BASE=discounted|gross (default discounted)
func GetValuationSettings() ValuationSettings {
	return ValuationSettings{TaxBase: ParseTaxBase(os.Getenv("TAX_BASE"))}
}

func ParseTaxBase(raw string) TaxBase {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(TaxBaseGross), "before_discount":
		return TaxBaseGross
	default:
		return TaxBaseDiscounted
	}
}

// IsProduction reports GO_ENV=production.
func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}
