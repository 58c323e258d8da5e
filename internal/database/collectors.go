package database

import (
	"context"

	"isuku-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

const collectorSelect = `
	SELECT c.id, c.company_id, c.user_id, c.employee_id, c.first_name, c.last_name, c.email,
		c.phone, c.national_id, c.employment_type, c.hire_date, c.termination_date, c.device_id,
		c.nfc_reader_id, c.status, c.rating, c.total_collections, c.notes, c.created_by_user_id,
		c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM routes r WHERE r.default_collector_id = c.id AND r.status = 'active') AS assigned_routes_count
	FROM collectors c`

func (s *Store) ListCollectors(ctx context.Context, f ListFilter) ([]models.Collector, error) {
	var sc scope
	sc.addCompany("c.company_id", f.CompanyID)
	if f.Status != "" {
		sc.add("c.status = ?", f.Status)
	}
	if v := f.Fields["employment_type"]; v != "" {
		sc.add("c.employment_type = ?", v)
	}
	if v := f.Fields["service_area"]; v != "" {
		sc.add("EXISTS (SELECT 1 FROM collector_service_areas csa WHERE csa.collector_id = c.id AND csa.service_area_id = ?)", v)
	}
	sc.addSearch(f.Search, "c.first_name", "c.last_name", "c.employee_id", "c.phone")

	query := collectorSelect + sc.clause() + orderBy(f.Ordering, map[string]string{
		"employee_id":       "c.employee_id",
		"last_name":         "c.last_name",
		"rating":            "c.rating",
		"total_collections": "c.total_collections",
		"created_at":        "c.created_at",
	}, "c.last_name ASC, c.first_name ASC")

	collectors := []models.Collector{}
	if err := s.db.SelectContext(ctx, &collectors, query, sc.args...); err != nil {
		return nil, translate(err, "Collectors")
	}
	return collectors, nil
}

func (s *Store) GetCollector(ctx context.Context, id string, companyID *string) (*models.Collector, error) {
	var sc scope
	sc.add("c.id = ?", id)
	sc.addCompany("c.company_id", companyID)

	var c models.Collector
	if err := s.db.GetContext(ctx, &c, collectorSelect+sc.clause(), sc.args...); err != nil {
		return nil, translate(err, "Collector")
	}
	return &c, nil
}

func (s *Store) FindCollectorByUserID(ctx context.Context, userID string) (*models.Collector, error) {
	var c models.Collector
	if err := s.db.GetContext(ctx, &c, collectorSelect+` WHERE c.user_id = $1`, userID); err != nil {
		return nil, translate(err, "Collector")
	}
	return &c, nil
}

func (s *Store) CollectorServiceAreaIDs(ctx context.Context, collectorID string) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids, `
		SELECT service_area_id FROM collector_service_areas WHERE collector_id = $1 ORDER BY service_area_id`, collectorID)
	if err != nil {
		return nil, translate(err, "Collector service areas")
	}
	return ids, nil
}

// CreateCollector inserts c with its service area links and, when account is
// non-nil, its app login, in one transaction.
func (s *Store) CreateCollector(ctx context.Context, c *models.Collector, serviceAreaIDs []string, account *models.User) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if account != nil {
			if err := insertUser(ctx, tx, account); err != nil {
				return err
			}
			c.UserID = &account.ID
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO collectors (id, company_id, user_id, employee_id, first_name, last_name, email,
				phone, national_id, employment_type, hire_date, device_id, nfc_reader_id, status, rating,
				total_collections, notes, created_by_user_id, created_at, updated_at)
			VALUES (:id, :company_id, :user_id, :employee_id, :first_name, :last_name, :email,
				:phone, :national_id, :employment_type, :hire_date, :device_id, :nfc_reader_id, :status, :rating,
				:total_collections, :notes, :created_by_user_id, :created_at, :updated_at)`, c)
		if err != nil {
			return translate(err, "Collector")
		}
		for _, areaID := range serviceAreaIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO collector_service_areas (collector_id, service_area_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, c.ID, areaID); err != nil {
				return translate(err, "Collector service area")
			}
		}
		return nil
	})
}

func (s *Store) SetCollectorStatus(ctx context.Context, id string, companyID *string, status models.CollectorStatus) (*models.Collector, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE collectors SET status = $1, updated_at = $2
		WHERE id = $3 AND ($4::TEXT IS NULL OR company_id = $4)`,
		status, s.now().Unix(), id, companyID)
	if err != nil {
		return nil, translate(err, "Collector")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("Collector")
	}
	return s.GetCollector(ctx, id, companyID)
}

// ListCollectorsForServiceArea returns collectors linked to an area.
func (s *Store) ListCollectorsForServiceArea(ctx context.Context, areaID string, companyID *string) ([]models.Collector, error) {
	return s.ListCollectors(ctx, ListFilter{CompanyID: companyID, Fields: map[string]string{"service_area": areaID}})
}

func (s *Store) CollectorPerformance(ctx context.Context, collectorID string) (*models.CollectorPerformance, error) {
	monthStart := models.DateOf(s.now()).AddDate(0, 0, 1-s.now().UTC().Day())

	var p models.CollectorPerformance
	err := s.db.GetContext(ctx, &p, `
		SELECT
			COUNT(*) AS total_schedules,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_schedules,
			COUNT(*) FILTER (WHERE status = 'missed') AS missed_schedules,
			COUNT(*) FILTER (WHERE status = 'completed' AND scheduled_date >= $2) AS collections_this_month
		FROM schedules
		WHERE collector_id = $1`, collectorID, dateArg(monthStart))
	if err != nil {
		return nil, translate(err, "Collector performance")
	}
	return &p, nil
}
