package client

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenExpiry_ValidToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := Token{Raw: makeToken(t, jwt.MapClaims{"exp": exp.Unix()})}

	got, err := tok.Expiry()
	require.NoError(t, err)
	assert.True(t, got.Equal(exp), "expected %v, got %v", exp, got)
}

func TestTokenExpiry_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "not a jwt", raw: "abc123"},
		{name: "two segments", raw: "aaa.bbb"},
		{name: "garbage payload", raw: "eyJhbGciOiJIUzI1NiJ9.!!!.sig"},
		{name: "missing exp", raw: makeToken(t, jwt.MapClaims{"sub": "1"})},
		{name: "non-numeric exp", raw: makeToken(t, jwt.MapClaims{"exp": "tomorrow"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Token{Raw: tt.raw}.Expiry()
			assert.Error(t, err)
		})
	}
}

func TestTokenPreview(t *testing.T) {
	assert.Equal(t, "abc123", Token{Raw: "abc123"}.Preview())
	assert.Equal(t, "0123456789ab...", Token{Raw: "0123456789abcdefghij"}.Preview())
}
