package oidc

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chantierhq/access/internal/session"
)

// Domain errors
var (
	ErrMalformedToken = errors.New("malformed id token")
)

// Parser extracts the session claim set from an identity-provider ID token.
//
// Signature verification is the provider integration's job and is assumed to
// have happened upstream; by default the parser only decodes. Deployments
// that terminate the provider callback themselves can supply a jwt.Keyfunc
// to re-verify the signature here.
type Parser struct {
	keyfunc jwt.Keyfunc
}

// NewParser creates a parser. keyfunc may be nil when tokens are verified
// upstream.
func NewParser(keyfunc jwt.Keyfunc) *Parser {
	return &Parser{keyfunc: keyfunc}
}

// Parse decodes an ID token into the claim set consumed by the session
// store. Missing required claims are reported by the store's own
// validation, not here.
func (p *Parser) Parse(idToken string) (session.Claims, error) {
	mapClaims := jwt.MapClaims{}

	if p.keyfunc != nil {
		if _, err := jwt.NewParser().ParseWithClaims(idToken, mapClaims, p.keyfunc); err != nil {
			return session.Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(idToken, mapClaims); err != nil {
			return session.Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	return session.Claims{
		Subject: stringClaim(mapClaims, "sub"),
		Email:   stringClaim(mapClaims, "email"),
		Name:    stringClaim(mapClaims, "name"),
		Picture: stringClaim(mapClaims, "picture"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
