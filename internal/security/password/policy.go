package password

import (
	"fmt"
	"strings"
	"unicode"
)

// Policy define las reglas de composición de un password.
type Policy struct {
	MinLength     int
	MaxLength     int // 0 = sin máximo
	RequireLetter bool
	RequireDigit  bool
	RequireSymbol bool
	Blacklist     *Blacklist
}

// DefaultPolicy: 6 a 20 caracteres sin espacios, con letra, dígito y símbolo.
var DefaultPolicy = Policy{MinLength: 6, MaxLength: 20, RequireLetter: true, RequireDigit: true, RequireSymbol: true}

// PolicyMessage es el texto que ve el cliente cuando la composición falla.
const PolicyMessage = "Password must contain at least one letter, one number and one special character"

// Validate devuelve los códigos de las reglas incumplidas.
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	n := len([]rune(s))
	if n < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		reasons = append(reasons, "too_long")
	}
	var hasL, hasD, hasS, hasSpace bool
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			hasSpace = true
		case r <= unicode.MaxASCII && unicode.IsLetter(r):
			hasL = true
		case r >= '0' && r <= '9':
			hasD = true
		default:
			hasS = true
		}
	}
	if hasSpace {
		reasons = append(reasons, "contains_space")
	}
	if p.RequireLetter && !hasL {
		reasons = append(reasons, "missing_letter")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, "blacklisted")
	}
	return len(reasons) == 0, reasons
}

// Describe arma un mensaje legible a partir de los códigos de Validate.
func (p Policy) Describe(reasons []string) string {
	msgs := make([]string, 0, len(reasons))
	composition := false
	for _, r := range reasons {
		switch r {
		case "too_short", "too_long":
			msgs = append(msgs, fmt.Sprintf("Password must be between %d and %d characters", p.MinLength, p.MaxLength))
		case "blacklisted":
			msgs = append(msgs, "Password is too common")
		default:
			composition = true
		}
	}
	if composition {
		msgs = append(msgs, PolicyMessage)
	}
	return strings.Join(msgs, "; ")
}
