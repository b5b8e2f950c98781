package instance

import "testing"

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("CARTLEDGER_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local got %s", got)
	}

	t.Setenv("DYNO", "web.1")
	if got := GetID(); got != "web.1" {
		t.Fatalf("expected web.1 got %s", got)
	}

	t.Setenv("CARTLEDGER_INSTANCE_ID", "api-blue")
	if got := GetID(); got != "api-blue" {
		t.Fatalf("expected api-blue got %s", got)
	}
}
