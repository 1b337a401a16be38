// Package tokens agrupa helpers de tokens opacos y sus digests.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
// Se usa para el state de los flujos OAuth.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (lo que se guarda en DB).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// MatchesHash compara plain contra un digest SHA256Base64URL guardado, en tiempo constante.
func MatchesHash(plain, stored string) bool {
	if stored == "" {
		return false
	}
	got := SHA256Base64URL(plain)
	return subtle.ConstantTimeCompare([]byte(got), []byte(stored)) == 1
}
