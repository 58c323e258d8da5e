// Package auth resolves login credentials to an account and issues session
// tokens for it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCredentialsRequired = apperr.Validation("credentials_required", "Must include either email or card number, and password.")
	ErrInvalidCredentials  = apperr.Unauthenticated("invalid_credentials", "Unable to log in with provided credentials.")
	ErrAccountDisabled     = apperr.Forbidden("account_disabled", "User account is disabled.")
	ErrNotVerified         = apperr.Forbidden("email_not_verified", "Email is not verified.")

	// The card path answers these distinctly, which reveals whether a card
	// number exists. The email path never does.
	ErrInvalidCardNumber = apperr.Unauthenticated("invalid_card_number", "Invalid card number.")
	ErrNoLinkedAccount   = apperr.Unauthenticated("no_linked_account", "No user account linked to this card.")
)

// AccountStore is the persistence the authenticator needs. Lookups return an
// error matching apperr.ErrNotFound when nothing matches.
type AccountStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindCustomerByCardNumber(ctx context.Context, cardNumber string) (*models.Customer, error)
	RecordLogin(ctx context.Context, userID, ip string, at int64) error
	RecordFailedLogin(ctx context.Context, userID string) error
}

// Credentials is a login attempt. Exactly one of Email and CardNumber is used:
// CardNumber wins when both are set.
type Credentials struct {
	Email      string `json:"email"`
	CardNumber string `json:"card_number"`
	Password   string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type Authenticator struct {
	store  AccountStore
	tokens *Tokens
	now    func() time.Time
}

func NewAuthenticator(store AccountStore, tokens *Tokens) *Authenticator {
	return &Authenticator{store: store, tokens: tokens, now: time.Now}
}

// Login resolves creds to one account, checks it may log in and issues a
// session token. ip is recorded as the last login address.
func (a *Authenticator) Login(ctx context.Context, creds Credentials, ip string) (*Session, error) {
	user, err := a.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := a.store.RecordLogin(ctx, user.ID, ip, a.now().Unix()); err != nil {
		log.Printf("⚠️  Failed to record login for %s: %v", user.ID, err)
	}

	token, exp, err := a.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Login successful: %s (%s)", user.Email, user.Role)
	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}

// Resolve returns the account creds identify, after checking the password and
// that the account is active and verified.
func (a *Authenticator) Resolve(ctx context.Context, creds Credentials) (*models.User, error) {
	card := strings.TrimSpace(creds.CardNumber)
	email := strings.TrimSpace(creds.Email)

	if (card == "" && email == "") || creds.Password == "" {
		return nil, ErrCredentialsRequired
	}

	var (
		user *models.User
		err  error
	)
	if card != "" {
		log.Printf("🔐 Login attempt with card: %s", maskCard(card))
		user, err = a.userForCard(ctx, card)
	} else {
		log.Printf("🔐 Login attempt for: %s", email)
		user, err = a.store.FindUserByEmail(ctx, strings.ToLower(email))
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		log.Printf("❌ Invalid password for user %s", user.ID)
		if err := a.store.RecordFailedLogin(ctx, user.ID); err != nil {
			log.Printf("⚠️  Failed to record failed login for %s: %v", user.ID, err)
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	return user, nil
}

func (a *Authenticator) userForCard(ctx context.Context, card string) (*models.User, error) {
	customer, err := a.store.FindCustomerByCardNumber(ctx, card)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrInvalidCardNumber
	}
	if err != nil {
		return nil, fmt.Errorf("find customer by card: %w", err)
	}
	if customer.UserID == nil {
		return nil, ErrNoLinkedAccount
	}

	user, err := a.store.FindUserByID(ctx, *customer.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrNoLinkedAccount
	}
	if err != nil {
		return nil, fmt.Errorf("find user for card: %w", err)
	}
	return user, nil
}

// HashPassword returns the bcrypt hash stored for a new account.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// NewAccount builds an active, verified account with a hashed password. The
// email is stored lowercased.
func NewAccount(email, password, first, last string, role models.Role, companyID *string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	return &models.User{
		ID:         uuid.New().String(),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Password:   hash,
		FirstName:  first,
		LastName:   last,
		Role:       role,
		CompanyID:  companyID,
		IsActive:   true,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func maskCard(card string) string {
	if len(card) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(card)-4) + card[len(card)-4:]
}
