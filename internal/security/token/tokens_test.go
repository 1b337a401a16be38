package tokens

import "testing"

func TestMatchesHash(t *testing.T) {
	h := SHA256Base64URL("refresh.jwt.value")
	if !MatchesHash("refresh.jwt.value", h) {
		t.Fatal("expected match")
	}
	if MatchesHash("refresh.jwt.other", h) {
		t.Fatal("unexpected match")
	}
	if MatchesHash("", "") {
		t.Fatal("empty stored hash must never match")
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(24)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateOpaqueToken(24)
	if a == b || len(a) != 32 {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}
}
