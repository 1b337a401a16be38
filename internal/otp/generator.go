package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produce códigos numéricos.
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator usa crypto/rand; Length dígitos con ceros a la izquierda.
type RandomGenerator struct {
	Length int
}

func (g RandomGenerator) Generate() (string, error) {
	n := g.Length
	if n <= 0 {
		n = 4
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("otp: random: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

// FixedGenerator devuelve siempre el mismo código. Sólo dev/tests
// (OTP_FIXED_CODE); la config lo anula en prod.
type FixedGenerator string

func (g FixedGenerator) Generate() (string, error) { return string(g), nil }
