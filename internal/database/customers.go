package database

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	cardNumberConstraint = "customers_card_number_key"
	cardNumberAttempts   = 10
)

var errCardNumbersExhausted = apperr.Conflict("card_number_unavailable", "Could not allocate a unique card number")

// NewCardNumber returns a random 8-digit card number. Leading zeros are kept.
func NewCardNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		panic(fmt.Sprintf("card number: %v", err))
	}
	return fmt.Sprintf("%08d", n.Int64())
}

// isUniqueViolation reports whether err is a 23505 on constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
}

// withGeneratedCard runs insert once for a customer that already has a card.
// Otherwise it assigns numbers from next until insert stops failing on the
// card number constraint.
func withGeneratedCard(c *models.Customer, next func() string, insert func() error) error {
	if c.CardNumber != nil && *c.CardNumber != "" {
		return insert()
	}
	for attempt := 1; attempt <= cardNumberAttempts; attempt++ {
		card := next()
		c.CardNumber = &card
		err := insert()
		if !isUniqueViolation(err, cardNumberConstraint) {
			return err
		}
		log.Printf("   ↪️  Card number collision on attempt %d, retrying", attempt)
	}
	c.CardNumber = nil
	return errCardNumbersExhausted
}

const customerColumns = `id, company_id, card_number, user_id, route_id, company_name, first_name,
	last_name, email, phone, district, sector, cell, village, street, prepaid_balance, status, notes,
	archived_at, created_by_user_id, created_at, updated_at`

func (s *Store) ListCustomers(ctx context.Context, f ListFilter) ([]models.Customer, error) {
	var sc scope
	sc.addCompany("company_id", f.CompanyID)
	if f.Status != "" {
		sc.add("status = ?", f.Status)
	} else {
		sc.where = append(sc.where, "status <> 'archived'")
	}
	if v := f.Fields["route"]; v != "" {
		sc.add("route_id = ?", v)
	}
	if v := f.Fields["district"]; v != "" {
		sc.add("district = ?", v)
	}
	sc.addSearch(f.Search, "first_name", "last_name", "company_name", "card_number", "phone", "email")

	query := `SELECT ` + customerColumns + ` FROM customers` + sc.clause() + orderBy(f.Ordering, map[string]string{
		"last_name":       "last_name",
		"card_number":     "card_number",
		"prepaid_balance": "prepaid_balance",
		"created_at":      "created_at",
	}, "created_at DESC")

	customers := []models.Customer{}
	if err := s.db.SelectContext(ctx, &customers, query, sc.args...); err != nil {
		return nil, translate(err, "Customers")
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string, companyID *string) (*models.Customer, error) {
	var c models.Customer
	err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers
		WHERE id = $1 AND ($2::TEXT IS NULL OR company_id = $2)`, id, companyID)
	if err != nil {
		return nil, translate(err, "Customer")
	}
	return &c, nil
}

// FindCustomerByCardNumber ignores archived customers.
func (s *Store) FindCustomerByCardNumber(ctx context.Context, cardNumber string) (*models.Customer, error) {
	var c models.Customer
	err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers
		WHERE card_number = $1 AND status <> 'archived'`, cardNumber)
	if err != nil {
		return nil, translate(err, "Customer")
	}
	return &c, nil
}

func (s *Store) FindCustomerByUserID(ctx context.Context, userID string) (*models.Customer, error) {
	var c models.Customer
	err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE user_id = $1`, userID)
	if err != nil {
		return nil, translate(err, "Customer")
	}
	return &c, nil
}

// CreateCustomer inserts c and, when account is non-nil, the portal login
// linked to it, in one transaction. A customer without a card number gets a
// generated one.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer, account *models.User) error {
	return withGeneratedCard(c, s.newCardNumber, func() error {
		return s.insertCustomer(ctx, c, account)
	})
}

func (s *Store) insertCustomer(ctx context.Context, c *models.Customer, account *models.User) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if account != nil {
			if err := insertUser(ctx, tx, account); err != nil {
				return err
			}
			c.UserID = &account.ID
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO customers (`+customerColumns+`)
			VALUES (:id, :company_id, :card_number, :user_id, :route_id, :company_name, :first_name,
				:last_name, :email, :phone, :district, :sector, :cell, :village, :street, :prepaid_balance,
				:status, :notes, :archived_at, :created_by_user_id, :created_at, :updated_at)`, c)
		return translate(err, "Customer")
	})
}

// ArchiveCustomer soft-deletes a customer and disables its portal login.
func (s *Store) ArchiveCustomer(ctx context.Context, id string, companyID *string) (*models.Customer, error) {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := s.now().Unix()
		var userID *string
		err := tx.GetContext(ctx, &userID, `
			UPDATE customers SET status = 'archived', archived_at = COALESCE(archived_at, $1), updated_at = $1
			WHERE id = $2 AND ($3::TEXT IS NULL OR company_id = $3)
			RETURNING user_id`, now, id, companyID)
		if err != nil {
			return translate(err, "Customer")
		}
		if userID != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE users SET is_active = FALSE, updated_at = $1 WHERE id = $2`, now, *userID); err != nil {
				return translate(err, "User")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCustomer(ctx, id, companyID)
}
