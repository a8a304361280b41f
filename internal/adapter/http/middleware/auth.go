package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Authenticate rejects requests without a valid bearer token and stores the
// caller's principal in the context.
func Authenticate(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, domain.ErrExpiredToken) {
					msg = "token has expired"
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", msg)
				return
			}

			ctx := WithPrincipal(r.Context(), claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize enforces the role a request method needs: viewers may read,
// operators may also create and update, only admins may delete.
func Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		allowed := true
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		case http.MethodDelete:
			allowed = p.Role.CanDelete()
		default:
			allowed = p.Role.CanCreate()
		}

		if !allowed {
			writeError(w, http.StatusForbidden, "forbidden", domain.ErrInsufficientRole.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole only lets through callers with at least minRole.
func RequireRole(minRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}

			if roleRank(p.Role) < roleRank(minRole) {
				writeError(w, http.StatusForbidden, "forbidden", domain.ErrInsufficientRole.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func roleRank(r domain.Role) int {
	switch r {
	case domain.RoleAdmin:
		return 3
	case domain.RoleOperator:
		return 2
	case domain.RoleViewer:
		return 1
	default:
		return 0
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the authenticated caller from ctx.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*domain.Principal)
	return p, ok && p != nil
}
