package household

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"abc123":    "ABC123",
		" fam-01 ":  "FAM01",
		"ünï":       "N",
		"":          "",
		"Smith Fam": "SMITHFAM",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	if Valid("") {
		t.Fatal("empty code must be invalid")
	}
	if !Valid("FAM01") {
		t.Fatal("expected FAM01 to be valid")
	}
	if Valid("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789") {
		t.Fatal("overlong code must be invalid")
	}
}
