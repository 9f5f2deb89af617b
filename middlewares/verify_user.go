package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/globizora/api-service/store"
	"github.com/globizora/api-service/utils"
)

type contextKey string

const UserIDContextKey contextKey = "userID"

const APIKeyHeader = "X-API-Key"

// TokenVerifier resolves a session token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Auth struct {
	Tokens TokenVerifier
	Users  store.UserStore
}

// AuthMiddleware requires "Authorization: Bearer <token>" and stores the
// token's user id on the request context.
func (a *Auth) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		userID, err := a.Tokens.Verify(tokenString)
		if err != nil {
			log.Printf("Auth failed: %v", err)
			utils.RespondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// APIKeyMiddleware authenticates programmatic callers by the X-API-Key header.
func (a *Auth) APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
		if key == "" {
			utils.RespondError(w, http.StatusUnauthorized, "No API key provided")
			return
		}

		user, err := a.Users.FindByAPIKey(r.Context(), key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			utils.RespondInternal(w, err, "api key lookup")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	return userID, ok && userID != ""
}

// WithUserID is used by tests and internal callers that bypass the middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
