// Package jwt issues and verifies the member tokens consumed by the HTTP
// layer. Tokens carry the member id as subject plus email and role claims.
package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
)

func VerifyToken(jwtAuth *jwtauth.JWTAuth, token string) (string, error) {
	t, err := jwtauth.VerifyToken(jwtAuth, token)
	if err != nil {
		return "", err
	}
	return t.Subject(), nil
}

// NewMemberToken creates a JWT for the given member. Role defaults to
// "member" when empty.
func NewMemberToken(jwtAuth *jwtauth.JWTAuth, ttl time.Duration, memberId, email, role string) (string, error) {
	if role == "" {
		role = "member"
	}
	claims := map[string]interface{}{
		"sub":   memberId,
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	_, ts, err := jwtAuth.Encode(claims)
	if err != nil {
		return "", err
	}
	return ts, nil
}
