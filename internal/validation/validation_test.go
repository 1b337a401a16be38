package validation

import "testing"

func TestValidEmail(t *testing.T) {
	valids := []string{
		"a@example.com",
		"first.last+tag@sub.example.org",
		"x_y@dom-ain.io",
	}
	for _, v := range valids {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	invalids := []string{
		"",
		"plain",
		"@example.com",
		"a@",
		"a@localhost",
		"John <a@example.com>",
		"a b@example.com",
		"a@example.c",
	}
	for _, v := range invalids {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidPhone(t *testing.T) {
	if !ValidPhone("0123456789") {
		t.Fatal("10 digits should be valid")
	}
	for _, v := range []string{"", "123", "01234567890", "012345678a", "+123456789"} {
		if ValidPhone(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestErrors(t *testing.T) {
	var e Errors
	e.Check(true, "never")
	if !e.Empty() {
		t.Fatal("expected empty")
	}
	e.Check(false, "email must be an email")
	e.Add("phone is required")
	if got := e.Error(); got != "email must be an email; phone is required" {
		t.Fatalf("unexpected: %q", got)
	}
}
