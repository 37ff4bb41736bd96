package middleware

import (
	"context"
	"net/http"
	"strings"

	"skillenergy/internal/api/v1/response"
	"skillenergy/internal/apperr"
	"skillenergy/internal/auth"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const principalKey = contextKey("principal")

// TokenCookie is the cookie login sets and the auth middleware reads.
const TokenCookie = "token"

// Principal is the authenticated caller.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// UserLookup loads the admin flag of an authenticated user.
type UserLookup interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller stored by Authenticate.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.UserID != ""
}

// tokenFrom reads a bearer token, falling back to the token cookie.
func tokenFrom(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate requires a valid session token and stores the caller's Principal in the context.
func Authenticate(tokens *auth.TokenManager, users UserLookup, logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("middleware", "auth").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				response.Error(w, log, apperr.Auth("Token is not valid"))
				return
			}
			claims, err := tokens.Validate(token)
			if err != nil || claims.Subject == "" {
				log.Debug().Err(err).Msg("Invalid token")
				response.Error(w, log, apperr.Auth("Token is not valid"))
				return
			}
			isAdmin, err := users.IsAdmin(r.Context(), claims.Subject)
			if err != nil {
				response.Error(w, log, err)
				return
			}
			ctx := WithPrincipal(r.Context(), Principal{UserID: claims.Subject, IsAdmin: isAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers without the admin flag. It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			response.Fail(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !p.IsAdmin {
			response.Fail(w, http.StatusForbidden, "Access denied. Not an admin.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
