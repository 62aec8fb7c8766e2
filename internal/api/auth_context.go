package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
	"github.com/coursedeck/coursedeck-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userKey      ctxKey = "user"
	authErrorKey ctxKey = "authError"
)

// msgUnauthorized is returned for missing or rejected credentials and for
// authenticated callers without the required role.
const msgUnauthorized = "Unauthorized"

// TokenVerifier resolves a bearer token to its stored user.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*domain.User, error)
}

var _ TokenVerifier = (*service.AuthService)(nil)

// authMiddleware returns a middleware that validates Bearer tokens and stores the user in context.
// If no token is present or it is invalid, the request continues anonymously.
// Handlers use requireUser/requireAdmin to reject anonymous callers.
func authMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				ctx := context.WithValue(r.Context(), authErrorKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// currentUser returns the authenticated user, or nil for anonymous requests.
func currentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

// requireUser returns the authenticated user or a 401.
// An expired token is reported as such so clients know to refresh.
func requireUser(ctx context.Context) (*domain.User, error) {
	if user := currentUser(ctx); user != nil {
		return user, nil
	}

	if err, ok := ctx.Value(authErrorKey).(error); ok && errors.Is(err, domainerrors.ErrTokenExpired) {
		return nil, err
	}
	return nil, domainerrors.Unauthorized(msgUnauthorized)
}

// requireAdmin returns the authenticated user if they are an admin.
// Non-admins get the same 401 as anonymous callers.
func requireAdmin(ctx context.Context) (*domain.User, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, domainerrors.Unauthorized(msgUnauthorized)
	}
	return user, nil
}
