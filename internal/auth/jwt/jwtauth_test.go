package jwt

import (
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
)

func TestMemberToken(t *testing.T) {
	jwtAuth := jwtauth.New("HS256", []byte("secret"), nil)

	tok, err := NewMemberToken(jwtAuth, time.Hour, "member-1", "m1@example.com", "")
	assert.NoError(t, err)

	sub, err := VerifyToken(jwtAuth, tok)
	assert.NoError(t, err)
	assert.Equal(t, "member-1", sub)
}

func TestMemberTokenClaims(t *testing.T) {
	jwtAuth := jwtauth.New("HS256", []byte("secret"), nil)

	tok, err := NewMemberToken(jwtAuth, time.Hour, "admin-1", "ops@example.com", "admin")
	assert.NoError(t, err)

	parsed, err := jwtauth.VerifyToken(jwtAuth, tok)
	assert.NoError(t, err)

	email, _ := parsed.Get("email")
	role, _ := parsed.Get("role")
	assert.Equal(t, "ops@example.com", email)
	assert.Equal(t, "admin", role)
}

func TestMemberTokenExpired(t *testing.T) {
	jwtAuth := jwtauth.New("HS256", []byte("secret"), nil)

	tok, err := NewMemberToken(jwtAuth, -time.Minute, "member-1", "m1@example.com", "member")
	assert.NoError(t, err)

	_, err = VerifyToken(jwtAuth, tok)
	assert.Error(t, err)
}

func TestVerifyTokenWrongKey(t *testing.T) {
	issuer := jwtauth.New("HS256", []byte("secret"), nil)
	verifier := jwtauth.New("HS256", []byte("other"), nil)

	tok, err := NewMemberToken(issuer, time.Hour, "member-1", "m1@example.com", "member")
	assert.NoError(t, err)

	_, err = VerifyToken(verifier, tok)
	assert.Error(t, err)
}
