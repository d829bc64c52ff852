package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// Authenticator verifies HS256 bearer tokens and stores the `sub` claim in
// the request context as the caller's principal.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		token, err := a.parser.Parse(raw, func(*jwt.Token) (any, error) {
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "invalid token subject")
			return
		}
		principal, err := domain.ParsePrincipal(sub)
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(r *http.Request) (domain.Principal, bool) {
	p, ok := r.Context().Value(PrincipalKey).(domain.Principal)
	return p, ok
}

// requirePrincipal writes a 401 when the request reached a handler without
// going through the Authenticator.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := principalFrom(r)
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "missing principal")
	}
	return p, ok
}
