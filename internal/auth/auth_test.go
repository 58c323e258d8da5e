package auth

import (
	"context"
	"testing"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccounts struct {
	users     map[string]*models.User
	customers map[string]*models.Customer
	failed    map[string]int
	logins    map[string]string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		users:     map[string]*models.User{},
		customers: map[string]*models.Customer{},
		failed:    map[string]int{},
		logins:    map[string]string{},
	}
}

func (f *fakeAccounts) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAccounts) FindUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAccounts) FindCustomerByCardNumber(_ context.Context, card string) (*models.Customer, error) {
	if c, ok := f.customers[card]; ok {
		return c, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAccounts) RecordLogin(_ context.Context, userID, ip string, _ int64) error {
	f.logins[userID] = ip
	return nil
}

func (f *fakeAccounts) RecordFailedLogin(_ context.Context, userID string) error {
	f.failed[userID]++
	return nil
}

func (f *fakeAccounts) addUser(t *testing.T, id, email, password string, active, verified bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID:         id,
		Email:      email,
		Password:   string(hash),
		Role:       models.RoleCustomer,
		IsActive:   active,
		IsVerified: verified,
	}
	f.users[id] = u
	return u
}

func (f *fakeAccounts) addCard(card string, userID *string) {
	f.customers[card] = &models.Customer{ID: "cust-" + card, CardNumber: &card, UserID: userID}
}

func newTestAuthenticator(store AccountStore) *Authenticator {
	return NewAuthenticator(store, NewTokens("test-secret", time.Hour))
}

func strPtr(s string) *string { return &s }

// =============================================================================
// CARD PATH
// =============================================================================

func TestLogin_CardSuccess(t *testing.T) {
	// GIVEN: an active, verified customer account linked to card 12345678
	store := newFakeAccounts()
	store.addUser(t, "u1", "amina@example.com", "s3cret!", true, true)
	store.addCard("12345678", strPtr("u1"))
	a := newTestAuthenticator(store)

	// WHEN: logging in with the card and the right password
	session, err := a.Login(context.Background(), Credentials{CardNumber: "12345678", Password: "s3cret!"}, "10.0.0.1")

	// THEN: that account is returned with a usable token
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, "10.0.0.1", store.logins["u1"])

	actor, err := a.tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", actor.UserID)
	assert.Equal(t, models.RoleCustomer, actor.Role)
}

func TestLogin_CardWrongPasswordIsGeneric(t *testing.T) {
	store := newFakeAccounts()
	store.addUser(t, "u1", "amina@example.com", "s3cret!", true, true)
	store.addCard("12345678", strPtr("u1"))
	a := newTestAuthenticator(store)

	_, err := a.Login(context.Background(), Credentials{CardNumber: "12345678", Password: "nope"}, "")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, store.failed["u1"])
	assert.Empty(t, store.logins)
}

func TestLogin_CardDisabledAccount(t *testing.T) {
	store := newFakeAccounts()
	store.addUser(t, "u1", "amina@example.com", "s3cret!", false, true)
	store.addCard("12345678", strPtr("u1"))
	a := newTestAuthenticator(store)

	_, err := a.Login(context.Background(), Credentials{CardNumber: "12345678", Password: "s3cret!"}, "")

	assert.ErrorIs(t, err, ErrAccountDisabled)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestLogin_CardUnknownAndUnlinked(t *testing.T) {
	store := newFakeAccounts()
	store.addCard("87654321", nil)
	a := newTestAuthenticator(store)

	_, err := a.Login(context.Background(), Credentials{CardNumber: "00000000", Password: "x"}, "")
	assert.ErrorIs(t, err, ErrInvalidCardNumber)

	_, err = a.Login(context.Background(), Credentials{CardNumber: "87654321", Password: "x"}, "")
	assert.ErrorIs(t, err, ErrNoLinkedAccount)
}

func TestLogin_CardTakesPrecedenceOverEmail(t *testing.T) {
	// An email that would succeed is ignored when a card is supplied.
	store := newFakeAccounts()
	store.addUser(t, "u1", "amina@example.com", "s3cret!", true, true)
	a := newTestAuthenticator(store)

	_, err := a.Login(context.Background(), Credentials{
		Email:      "amina@example.com",
		CardNumber: "99999999",
		Password:   "s3cret!",
	}, "")

	assert.ErrorIs(t, err, ErrInvalidCardNumber)
}

// =============================================================================
// EMAIL PATH
// =============================================================================

func TestLogin_EmailSuccessIsCaseInsensitive(t *testing.T) {
	store := newFakeAccounts()
	store.addUser(t, "u2", "admin@isuku.rw", "admin123", true, true)
	a := newTestAuthenticator(store)

	session, err := a.Login(context.Background(), Credentials{Email: " Admin@Isuku.rw ", Password: "admin123"}, "")

	require.NoError(t, err)
	assert.Equal(t, "u2", session.User.ID)
}

func TestLogin_EmailDoesNotRevealExistence(t *testing.T) {
	store := newFakeAccounts()
	store.addUser(t, "u2", "admin@isuku.rw", "admin123", true, true)
	a := newTestAuthenticator(store)

	_, unknownErr := a.Login(context.Background(), Credentials{Email: "ghost@isuku.rw", Password: "admin123"}, "")
	_, wrongErr := a.Login(context.Background(), Credentials{Email: "admin@isuku.rw", Password: "wrong"}, "")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
}

func TestLogin_NotVerified(t *testing.T) {
	store := newFakeAccounts()
	store.addUser(t, "u3", "new@isuku.rw", "pw", true, false)
	a := newTestAuthenticator(store)

	_, err := a.Login(context.Background(), Credentials{Email: "new@isuku.rw", Password: "pw"}, "")

	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestLogin_MissingFields(t *testing.T) {
	a := newTestAuthenticator(newFakeAccounts())

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"nothing", Credentials{}},
		{"password only", Credentials{Password: "pw"}},
		{"email without password", Credentials{Email: "a@b.c"}},
		{"blank card and email", Credentials{Email: "  ", CardNumber: " ", Password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Login(context.Background(), tt.creds, "")
			assert.ErrorIs(t, err, ErrCredentialsRequired)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "****5678", maskCard("12345678"))
	assert.Equal(t, "****", maskCard("123"))
}

func TestNewAccount(t *testing.T) {
	company := "company-1"
	u, err := NewAccount("  Grace@Example.RW ", "pa55word", "Grace", "Uwase", models.RoleCollector, &company)
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "grace@example.rw", u.Email)
	assert.Equal(t, models.RoleCollector, u.Role)
	assert.Equal(t, &company, u.CompanyID)
	assert.True(t, u.IsActive)
	assert.True(t, u.IsVerified)
	assert.NotEqual(t, "pa55word", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("pa55word")))

	other, err := NewAccount("other@example.rw", "pa55word", "", "", models.RoleSystemAdmin, nil)
	require.NoError(t, err)
	assert.NotEqual(t, u.ID, other.ID)
	assert.Nil(t, other.CompanyID)
}
