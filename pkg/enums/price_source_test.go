package enums

import "testing"

func TestParsePriceSource(t *testing.T) {
	got, err := ParsePriceSource("check_off")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != PriceSourceCheckOff {
		t.Fatalf("expected check_off, got %s", got)
	}
	if _, err := ParsePriceSource("scraped"); err == nil {
		t.Fatal("expected unknown source to fail")
	}
	if PriceSource("manual").IsValid() {
		t.Fatal("manual is not a known source")
	}
}
