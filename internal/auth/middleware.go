package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the claims stored under it.
type contextKey string

const claimsKey contextKey = "claims"

// errNoBearer covers a missing Authorization header and any header that is
// not exactly "Bearer <token>". The gate treats it the same as a bad token.
var errNoBearer = errors.New("auth: missing or malformed bearer header")

const unauthorizedBody = `{"error":true,"message":"Unauthorized"}` + "\n"

// RequireAuth is the gate in front of every note route and /get-user.
//
// Per request:
//
//	NoToken ──(header present?)──▶ TokenPresent ──(Validate)──▶ Authenticated(claims) | Rejected
//
// NoToken and Rejected both end the request with 401 and the same body; the
// next handler never runs. The reason is logged at debug level only, so a
// client cannot tell an expired token from a forged one.
//
// Authenticated stores the Claims in the request context; handlers read it
// with ClaimsFromContext or UserIDFromContext.
func RequireAuth(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, tokens)
			if err != nil {
				logger.DebugContext(r.Context(), "request rejected by auth gate",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(unauthorizedBody))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims placed by RequireAuth, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil && c.UserID != ""
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) if the request did not pass RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return c.UserID, true
}

func authenticate(r *http.Request, tokens *TokenService) (*Claims, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	return tokens.Validate(token)
}

// bearerToken extracts <token> from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively (RFC 7235).
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoBearer
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errNoBearer
	}

	return parts[1], nil
}
