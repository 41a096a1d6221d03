package password

import "testing"

func TestValidate(t *testing.T) {
	p := Policy{MinLength: 8, RequireUpper: true, RequireLower: true, RequireDigit: true, RequireSymbol: true}

	if ok, reasons := p.Validate("Abcdef1!"); !ok {
		t.Fatalf("expected valid, got %v", reasons)
	}

	cases := []struct {
		pw     string
		reason string
	}{
		{"Ab1!", "too_short"},
		{"abcdefg1!", "missing_upper"},
		{"ABCDEFG1!", "missing_lower"},
		{"Abcdefgh!", "missing_digit"},
		{"Abcdefg12", "missing_symbol"},
	}
	for _, c := range cases {
		ok, reasons := p.Validate(c.pw)
		if ok {
			t.Fatalf("%q: expected invalid", c.pw)
		}
		found := false
		for _, r := range reasons {
			if r == c.reason {
				found = true
			}
		}
		if !found {
			t.Fatalf("%q: expected reason %q in %v", c.pw, c.reason, reasons)
		}
	}
}

func TestValidate_RuneLength(t *testing.T) {
	// MinLength cuenta runas, no bytes.
	p := Policy{MinLength: 4}
	if ok, _ := p.Validate("ñññ1"); !ok {
		t.Fatal("4 runes should satisfy MinLength 4")
	}
}

func TestDescribe(t *testing.T) {
	if Describe(nil) != "" {
		t.Fatal("no reasons should describe to empty string")
	}
	msg := Describe([]string{"too_short", "missing_digit"})
	if msg != "password does not meet complexity requirements: too_short, missing_digit" {
		t.Fatalf("unexpected message: %q", msg)
	}
}
