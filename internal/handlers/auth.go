package handlers

import (
	"context"
	"log"
	"net/http"

	"isuku-backend/internal/auth"
	"isuku-backend/internal/models"
	"isuku-backend/pkg/utils"
)

type LoginResponse struct {
	Success   bool                `json:"success"`
	Token     string              `json:"token"`
	ExpiresAt int64               `json:"expires_at"`
	User      models.UserResponse `json:"user"`
}

// UserLookup loads accounts by id.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Login accepts an email or an 8-digit card number with a password.
func Login(authn *auth.Authenticator, audits AuditRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds auth.Credentials
		if err := utils.DecodeJSON(r, &creds); err != nil {
			utils.RespondAppError(w, err)
			return
		}

		session, err := authn.Login(r.Context(), creds, clientIP(r))
		if err != nil {
			log.Printf("❌ Login failed: %v", err)
			utils.RespondAppError(w, err)
			return
		}

		user := session.User
		audit(r, audits, &user.ID, "login", "user", &user.ID)

		respondOK(w, LoginResponse{
			Success:   true,
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt.Unix(),
			User:      user.ToUserResponse(),
		})
	}
}

// Me returns the account behind the session token.
func Me(users UserLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		user, err := users.FindUserByID(r.Context(), actor.UserID)
		if err != nil {
			utils.RespondAppError(w, err)
			return
		}
		respondOK(w, user.ToUserResponse())
	}
}
