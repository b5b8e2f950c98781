package enums

import "fmt"

// PriceSource records how a price observation entered the ledger.
type PriceSource string

const (
	PriceSourcePhoto    PriceSource = "photo"
	PriceSourceCheckOff PriceSource = "check_off"
	PriceSourceReceipt  PriceSource = "receipt"
	PriceSourceBackfill PriceSource = "backfill"
)

var validPriceSources = []PriceSource{
	PriceSourcePhoto,
	PriceSourceCheckOff,
	PriceSourceReceipt,
	PriceSourceBackfill,
}

// String implements fmt.Stringer.
func (p PriceSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceSource.
func (p PriceSource) IsValid() bool {
	for _, candidate := range validPriceSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceSource converts raw input into a PriceSource.
func ParsePriceSource(value string) (PriceSource, error) {
	for _, candidate := range validPriceSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price source %q", value)
}
