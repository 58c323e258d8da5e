package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store is the Postgres-backed persistence for every domain package.
type Store struct {
	db            *sqlx.DB
	now           func() time.Time
	newCardNumber func() string
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now, newCardNumber: NewCardNumber}
}

func (s *Store) DB() *sqlx.DB { return s.db }

const uniqueViolation = "23505"

// translate maps driver errors onto the apperr taxonomy.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		// Same kind and code as apperr.ErrNotFound, with a specific message.
		return apperr.NotFound("not_found", what+" not found").Wrap(err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperr.Conflict("conflict", what+" already exists").Wrap(fmt.Errorf("%s: %w", pqErr.Constraint, err))
	}
	return fmt.Errorf("%s: %w", what, err)
}

// dateArg formats t for comparison against DATE columns.
func dateArg(t time.Time) string {
	return models.DateOf(t).Format(models.DateLayout)
}

func itoa(n int) string { return strconv.Itoa(n) }

func notFound(what string) error {
	return apperr.NotFound("not_found", what+" not found")
}

// scope restricts a query to one tenant. A nil companyID means every tenant.
type scope struct {
	where []string
	args  []interface{}
}

func (sc *scope) add(clause string, arg interface{}) {
	sc.args = append(sc.args, arg)
	sc.where = append(sc.where, strings.Replace(clause, "?", fmt.Sprintf("$%d", len(sc.args)), 1))
}

func (sc *scope) addCompany(column string, companyID *string) {
	if companyID != nil {
		sc.add(column+" = ?", *companyID)
	}
}

func (sc *scope) addSearch(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	sc.args = append(sc.args, "%"+term+"%")
	n := len(sc.args)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	sc.where = append(sc.where, "("+strings.Join(parts, " OR ")+")")
}

func (sc *scope) clause() string {
	if len(sc.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(sc.where, " AND ")
}

// orderBy returns a whitelisted ORDER BY clause. A leading "-" sorts descending.
func orderBy(requested string, allowed map[string]string, fallback string) string {
	desc := strings.HasPrefix(requested, "-")
	col, ok := allowed[strings.TrimPrefix(requested, "-")]
	if !ok {
		return " ORDER BY " + fallback
	}
	if desc {
		return " ORDER BY " + col + " DESC"
	}
	return " ORDER BY " + col + " ASC"
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListFilter carries the common list query parameters.
type ListFilter struct {
	CompanyID *string
	Status    string
	Search    string
	Ordering  string
	// Field filters keyed by query parameter name.
	Fields map[string]string
}
