package database

import (
	"context"
	"strings"

	"isuku-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, password, first_name, last_name, phone, role, company_id,
	is_active, is_verified, last_login_at, last_login_ip, failed_login_attempts, created_at, updated_at`

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, strings.ToLower(email))
	if err != nil {
		return nil, translate(err, "User")
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, translate(err, "User")
	}
	return &u, nil
}

// RecordLogin stamps a successful login and clears the failure counter.
func (s *Store) RecordLogin(ctx context.Context, userID, ip string, at int64) error {
	var ipArg *string
	if ip != "" {
		ipArg = &ip
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET last_login_at = $2, last_login_ip = $3, failed_login_attempts = 0, updated_at = $2
		WHERE id = $1`, userID, at, ipArg)
	return translate(err, "User")
}

func (s *Store) RecordFailedLogin(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET failed_login_attempts = failed_login_attempts + 1 WHERE id = $1`, userID)
	return translate(err, "User")
}

func insertUser(ctx context.Context, tx sqlx.ExtContext, u *models.User) error {
	_, err := sqlx.NamedExecContext(ctx, tx, `
		INSERT INTO users (id, email, password, first_name, last_name, phone, role, company_id,
			is_active, is_verified, created_at, updated_at)
		VALUES (:id, :email, :password, :first_name, :last_name, :phone, :role, :company_id,
			:is_active, :is_verified, :created_at, :updated_at)`, u)
	return translate(err, "User")
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return insertUser(ctx, s.db, u)
}

// UpsertFCMToken registers token for userID, moving it over if another
// account registered it before.
func (s *Store) UpsertFCMToken(ctx context.Context, userID, token, deviceType string) error {
	now := s.now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fcm_tokens (user_id, token, device_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, device_type = EXCLUDED.device_type, updated_at = EXCLUDED.updated_at`,
		userID, token, deviceType, now)
	return translate(err, "FCM token")
}

// FCMTokensForCollector returns the push tokens of the account linked to a
// collector.
func (s *Store) FCMTokensForCollector(ctx context.Context, collectorID string) ([]string, error) {
	var tokens []string
	err := s.db.SelectContext(ctx, &tokens, `
		SELECT t.token FROM fcm_tokens t
		JOIN collectors c ON c.user_id = t.user_id
		WHERE c.id = $1`, collectorID)
	if err != nil {
		return nil, translate(err, "FCM tokens")
	}
	return tokens, nil
}

func (s *Store) DeleteFCMToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fcm_tokens WHERE token = $1`, token)
	return translate(err, "FCM token")
}

func (s *Store) RecordAudit(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt == 0 {
		entry.CreatedAt = s.now().Unix()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, ip_address, user_agent, created_at)
		VALUES (:id, :user_id, :action, :entity_type, :entity_id, :ip_address, :user_agent, :created_at)`, entry)
	return translate(err, "Audit log")
}
