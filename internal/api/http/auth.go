package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/klubben/events-manager/internal/entity"
)

type memberCtxKey struct{}

// authenticator resolves the caller identity from the verified JWT claims
// and stashes it on the context. The token is the identity collaborator's
// word; no user records are kept here.
func (s *Server) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
			return
		}

		member, err := memberFromClaims(claims)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), memberCtxKey{}, member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		member := memberFromContext(r.Context())
		if member.Role != entity.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func memberFromClaims(claims map[string]interface{}) (entity.Member, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return entity.Member{}, fmt.Errorf("token has no subject")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return entity.Member{}, fmt.Errorf("token has no email claim")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = entity.RoleMember
	}
	return entity.Member{
		Id:    sub,
		Email: email,
		Role:  role,
	}, nil
}

// memberFromContext returns the identity stored by the authenticator. Only
// valid below it in the middleware chain.
func memberFromContext(ctx context.Context) entity.Member {
	member, _ := ctx.Value(memberCtxKey{}).(entity.Member)
	return member
}
