package database

import (
	"context"

	"isuku-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

const companySelect = `
	SELECT c.id, c.name, c.registration_number, c.email, c.phone, c.status, c.is_verified,
		c.license_start_date, c.license_end_date, c.max_customers, c.max_collectors,
		c.prepaid_collection_price, c.created_by_user_id, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM customers cu WHERE cu.company_id = c.id AND cu.status <> 'archived') AS customer_count,
		(SELECT COUNT(*) FROM collectors co WHERE co.company_id = c.id) AS collector_count
	FROM companies c`

func (s *Store) ListCompanies(ctx context.Context, f ListFilter) ([]models.Company, error) {
	var sc scope
	if f.Status != "" {
		sc.add("c.status = ?", f.Status)
	}
	sc.addSearch(f.Search, "c.name", "c.email", "c.registration_number")

	query := companySelect + sc.clause() + orderBy(f.Ordering, map[string]string{
		"name":       "c.name",
		"created_at": "c.created_at",
	}, "c.name ASC")

	companies := []models.Company{}
	if err := s.db.SelectContext(ctx, &companies, query, sc.args...); err != nil {
		return nil, translate(err, "Companies")
	}
	return companies, nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	if err := s.db.GetContext(ctx, &c, companySelect+` WHERE c.id = $1`, id); err != nil {
		return nil, translate(err, "Company")
	}
	return &c, nil
}

// CreateCompanyWithAdmin inserts a tenant and, when admin is non-nil, its
// first company administrator in one transaction.
func (s *Store) CreateCompanyWithAdmin(ctx context.Context, c *models.Company, admin *models.User) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO companies (id, name, registration_number, email, phone, status, is_verified,
				license_start_date, license_end_date, max_customers, max_collectors,
				prepaid_collection_price, created_by_user_id, created_at, updated_at)
			VALUES (:id, :name, :registration_number, :email, :phone, :status, :is_verified,
				:license_start_date, :license_end_date, :max_customers, :max_collectors,
				:prepaid_collection_price, :created_by_user_id, :created_at, :updated_at)`, c)
		if err != nil {
			return translate(err, "Company")
		}
		if admin == nil {
			return nil
		}
		return insertUser(ctx, tx, admin)
	})
}

func (s *Store) SetCompanyStatus(ctx context.Context, id string, status models.CompanyStatus) (*models.Company, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE companies SET status = $2, updated_at = $3 WHERE id = $1`, id, status, s.now().Unix())
	if err != nil {
		return nil, translate(err, "Company")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("Company")
	}
	return s.GetCompany(ctx, id)
}

// PlatformStats aggregates counts across every tenant.
type PlatformStats struct {
	TotalCompanies   int `json:"total_companies" db:"total_companies"`
	ActiveCompanies  int `json:"active_companies" db:"active_companies"`
	TotalCustomers   int `json:"total_customers" db:"total_customers"`
	TotalCollectors  int `json:"total_collectors" db:"total_collectors"`
	TotalRoutes      int `json:"total_routes" db:"total_routes"`
	SchedulesToday   int `json:"schedules_today" db:"schedules_today"`
	CompletedToday   int `json:"completed_today" db:"completed_today"`
	OverdueSchedules int `json:"overdue_schedules" db:"overdue_schedules"`
}

func (s *Store) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	today := dateArg(s.now())
	var st PlatformStats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			(SELECT COUNT(*) FROM companies) AS total_companies,
			(SELECT COUNT(*) FROM companies WHERE status = 'active') AS active_companies,
			(SELECT COUNT(*) FROM customers WHERE status <> 'archived') AS total_customers,
			(SELECT COUNT(*) FROM collectors) AS total_collectors,
			(SELECT COUNT(*) FROM routes WHERE status <> 'archived') AS total_routes,
			(SELECT COUNT(*) FROM schedules WHERE scheduled_date = $1) AS schedules_today,
			(SELECT COUNT(*) FROM schedules WHERE scheduled_date = $1 AND status = 'completed') AS completed_today,
			(SELECT COUNT(*) FROM schedules WHERE scheduled_date < $1 AND status = 'scheduled') AS overdue_schedules`, today)
	if err != nil {
		return nil, translate(err, "Platform stats")
	}
	return &st, nil
}
