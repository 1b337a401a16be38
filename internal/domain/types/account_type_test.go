package types

import "testing"

func TestParseAccountType(t *testing.T) {
	if at, ok := ParseAccountType(" superadmin "); !ok || at != AccountSuperAdmin {
		t.Fatalf("got %q %v", at, ok)
	}
	if _, ok := ParseAccountType("ADMIN"); ok {
		t.Fatal("ADMIN must not parse")
	}
	if !AccountUser.In(AccountSuperAdmin, AccountUser) {
		t.Fatal("USER should be in list")
	}
	if AccountUser.In(AccountSuperAdmin) {
		t.Fatal("USER should not be in [SUPERADMIN]")
	}
}
