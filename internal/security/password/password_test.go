package password

import (
	"strings"
	"testing"
)

// Params livianos para que los tests no tarden.
var fast = Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(fast, "S3cret!pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected phc: %s", phc)
	}
	if !Verify("S3cret!pw", phc) {
		t.Fatal("expected verify ok")
	}
	if Verify("S3cret!px", phc) {
		t.Fatal("wrong password verified")
	}
	other, _ := Hash(fast, "S3cret!pw")
	if other == phc {
		t.Fatal("salt must differ between hashes")
	}
}

func TestVerifyMalformed(t *testing.T) {
	for _, phc := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$AA$AA", "$argon2id$v=19$m=x,t=1,p=1$AA$AA"} {
		if Verify("x", phc) {
			t.Fatalf("malformed %q verified", phc)
		}
	}
	if _, err := Hash(fast, ""); err != ErrEmptyPassword {
		t.Fatalf("want ErrEmptyPassword, got %v", err)
	}
}

func TestNeedsRehash(t *testing.T) {
	phc, _ := Hash(fast, "abc123!")
	if NeedsRehash(fast, phc) {
		t.Fatal("same params should not need rehash")
	}
	if !NeedsRehash(Default, phc) {
		t.Fatal("different params should need rehash")
	}
}

func TestDefaultPolicy(t *testing.T) {
	cases := []struct {
		pw   string
		ok   bool
		want string
	}{
		{"abc12!", true, ""},
		{"Password1#", true, ""},
		{"ab1!", false, "too_short"},
		{"abcdefghij1234567890!", false, "too_long"},
		{"abcdef1", false, "missing_symbol"},
		{"abcdef!", false, "missing_digit"},
		{"123456!", false, "missing_letter"},
		{"abc 12!", false, "contains_space"},
	}
	for _, c := range cases {
		ok, reasons := DefaultPolicy.Validate(c.pw)
		if ok != c.ok {
			t.Fatalf("%q: ok=%v reasons=%v", c.pw, ok, reasons)
		}
		if c.want != "" && !containsReason(reasons, c.want) {
			t.Fatalf("%q: want %s in %v", c.pw, c.want, reasons)
		}
	}
}

func TestPolicyBlacklist(t *testing.T) {
	p := DefaultPolicy
	p.Blacklist = NewBlacklist("Passw0rd!")
	ok, reasons := p.Validate("passw0rd!")
	if ok || !containsReason(reasons, "blacklisted") {
		t.Fatalf("expected blacklisted, got %v", reasons)
	}
	if msg := p.Describe(reasons); msg != "Password is too common" {
		t.Fatalf("describe: %q", msg)
	}
}

func TestReadBlacklist(t *testing.T) {
	bl, err := readBlacklist(strings.NewReader("# comment\n123456\n\n  QWERTY \n"))
	if err != nil {
		t.Fatal(err)
	}
	if bl.Len() != 2 || !bl.Contains("qwerty") || bl.Contains("comment") {
		t.Fatalf("unexpected blacklist contents (len=%d)", bl.Len())
	}
	var nilBL *Blacklist
	if nilBL.Contains("x") {
		t.Fatal("nil blacklist must be empty")
	}
}

func containsReason(rs []string, r string) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}
