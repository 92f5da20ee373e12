package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authdomain "eventboard/backend/internal/domain/auth"

	"github.com/sirupsen/logrus"
)

// IdentityResolver turns a bearer token into the caller's current identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*authdomain.Identity, error)
}

type ctxKeyIdentity struct{}

// Auth failure reasons reported to metrics.
const (
	reasonMissingToken = "missing_token"
	reasonInvalidToken = "invalid_token"
	reasonForbidden    = "forbidden"
)

// RequireAuthenticated admits requests carrying a valid bearer token and
// attaches the resolved identity to the request context. Anything else is
// answered with 401, except storage failures, which are answered with 500.
func RequireAuthenticated(resolver IdentityResolver, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				markAuthFailure(w, reasonMissingToken)
				writeError(w, http.StatusUnauthorized, authdomain.ErrUnauthenticated.Error())
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), token)
			if err != nil {
				if errors.Is(err, authdomain.ErrUnauthenticated) {
					markAuthFailure(w, reasonInvalidToken)
					writeError(w, http.StatusUnauthorized, authdomain.ErrUnauthenticated.Error())
					return
				}
				logger.WithError(err).
					WithField("request_id", requestIDFromContext(r.Context())).
					Error("resolving identity")
				writeError(w, http.StatusInternalServerError, internalErrorMessage)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits authenticated callers holding role. It must run after
// RequireAuthenticated; a request without an identity gets 401.
func RequireRole(role authdomain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				markAuthFailure(w, reasonMissingToken)
				writeError(w, http.StatusUnauthorized, authdomain.ErrUnauthenticated.Error())
				return
			}
			if !identity.HasRole(role) {
				markAuthFailure(w, reasonForbidden)
				writeError(w, http.StatusForbidden, authdomain.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the identity attached by RequireAuthenticated.
func IdentityFromContext(ctx context.Context) (*authdomain.Identity, bool) {
	identity, ok := ctx.Value(ctxKeyIdentity{}).(*authdomain.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
