package gameserver

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/questforge/mud/internal/config"
)

// TokenVerifier validates HS256 bearer tokens issued by the account
// service and extracts the user id from the subject claim. Token issuance
// lives outside this server.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(cfg config.AuthConfig) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(cfg.TokenSecret),
		issuer: cfg.Issuer,
	}
}

// UserID parses and validates the token and returns its subject.
// Precondition: token is a compact JWS string.
// Postcondition: the returned user id is non-empty, or an error is returned.
func (v *TokenVerifier) UserID(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}
