package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/auth"
	"isuku-backend/internal/models"
	"isuku-backend/pkg/utils"
)

type contextKey string

const ActorContextKey contextKey = "actor"

var (
	errMissingToken = apperr.Unauthenticated("not_authenticated", "Authentication credentials were not provided.")
	errBadToken     = apperr.Unauthenticated("invalid_token", "Given token not valid for any token type")
)

// Auth validates the bearer token and stores the resulting actor in the
// request context.
func Auth(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("❌ No authorization header: %s %s", r.Method, r.URL.Path)
				utils.RespondAppError(w, errMissingToken)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				log.Printf("❌ Invalid authorization header format (parts: %d)", len(parts))
				utils.RespondAppError(w, errBadToken)
				return
			}

			actor, err := tokens.Parse(parts[1])
			if err != nil {
				log.Printf("❌ Invalid token on %s %s: %v", r.Method, r.URL.Path, err)
				utils.RespondAppError(w, errBadToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole rejects requests whose actor holds none of roles. It must run
// after Auth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r)
			if !ok {
				log.Println("❌ Actor not found in context")
				utils.RespondAppError(w, errMissingToken)
				return
			}

			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Printf("❌ Insufficient permissions: required %v, got %s", roles, actor.Role)
			utils.RespondAppError(w, apperr.ErrForbidden)
		})
	}
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

// GetActor extracts the authenticated actor from the request context.
func GetActor(r *http.Request) (models.Actor, bool) {
	actor, ok := r.Context().Value(ActorContextKey).(models.Actor)
	return actor, ok
}
