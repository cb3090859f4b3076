package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/mentorfeed/internal/auth"
)

// identityKey is the context key for the authenticated viewer.
type identityKey struct{}

// Identity is the viewer named by a valid access token.
type Identity struct {
	Login string
	Role  string
}

// SetIdentity stores the viewer identity in the context.
func SetIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentity returns the viewer identity from context, if any.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// TokenValidator validates access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Authenticate attaches the identity carried by a Bearer token to the request
// context. Feeds are public, so requests without a token, or with an invalid
// or expired one, continue anonymously.
func Authenticate(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.DebugContext(r.Context(), "ignoring access token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := SetIdentity(r.Context(), Identity{Login: claims.Subject, Role: claims.Role})
			UpdateResponseContext(w, ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
