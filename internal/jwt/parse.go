package jwt

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// verify valida firma (sólo HS256), exp obligatorio, iss si está configurado,
// token_use y jti. El base64url se decodifica estricto: un token tiene una sola
// forma válida. Cualquier falla se reporta como ErrInvalidToken.
func (i *Issuer) verify(raw, use string, secret []byte) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithTimeFunc(i.now),
		jwtv5.WithStrictDecoding(),
	}
	if i.cfg.Issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(i.cfg.Issuer))
	}

	var claims Claims
	tok, err := jwtv5.ParseWithClaims(raw, &claims, func(*jwtv5.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenUse != use || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
