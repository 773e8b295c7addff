package client

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errEmptyToken    = errors.New("empty token")
	errMissingExpiry = errors.New("token has no exp claim")
)

// Token is an opaque bearer credential. It is expected to be a JWT carrying
// an "exp" claim, but nothing else about its contents is interpreted.
type Token struct {
	Raw string
}

// Expiry decodes the exp claim of the token.
//
// The signature is NOT verified: the client holds no verification key and
// the server validates every bearer token it receives.
func (t Token) Expiry() (time.Time, error) {
	if t.Raw == "" {
		return time.Time{}, errEmptyToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.Raw, claims); err != nil {
		return time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errMissingExpiry
	}
	return exp.Time, nil
}

// Preview returns a shortened form of the token that is safe to log
func (t Token) Preview() string {
	if len(t.Raw) > 12 {
		return t.Raw[:12] + "..."
	}
	return t.Raw
}

func (t Token) String() string {
	return t.Preview()
}
