package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/http/response"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

type ctxKey string

const CtxPrincipal ctxKey = "principal"

// Authenticator resolves a raw bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

type Auth struct {
	authn Authenticator
	dev   bool
}

func NewAuth(authn Authenticator, dev bool) *Auth {
	return &Auth{authn: authn, dev: dev}
}

// Require rejects the request unless it carries a valid token whose account
// holds every capability in caps.
func (a *Auth) Require(caps ...domain.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.authn.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				response.Error(w, r, err, a.dev)
				return
			}
			if err := p.Require(caps...); err != nil {
				logger.InfoContext(r.Context(), "Access denied", "account_id", p.AccountID, "role", p.Role, "path", r.URL.Path)
				response.Error(w, r, err, a.dev)
				return
			}
			next.ServeHTTP(w, withPrincipal(r, p))
		})
	}
}

// Optional attaches a principal when a valid token is present and otherwise
// passes the request through untouched.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := bearerToken(r); tok != "" {
			if p, err := a.authn.Authenticate(r.Context(), tok); err == nil {
				r = withPrincipal(r, p)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func withPrincipal(r *http.Request, p *domain.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), CtxPrincipal, p)
	ctx = context.WithValue(ctx, logger.UserIDKey, p.AccountID)
	return r.WithContext(ctx)
}

// Principal returns the caller attached by Require or Optional, or nil.
func Principal(r *http.Request) *domain.Principal {
	if v := r.Context().Value(CtxPrincipal); v != nil {
		if p, ok := v.(*domain.Principal); ok {
			return p
		}
	}
	return nil
}

// bearerToken reads the Authorization header. GET requests may pass the token
// as ?token= so image tags can load donor files.
func bearerToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("token")
	}
	return ""
}
