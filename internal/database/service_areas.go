package database

import (
	"context"

	"isuku-backend/internal/models"
)

const serviceAreaSelect = `
	SELECT a.id, a.company_id, a.name, a.code, a.description, a.province, a.district, a.sector,
		a.cell, a.village, a.latitude, a.longitude, a.status, a.estimated_households,
		a.estimated_customers, a.created_by_user_id, a.created_at, a.updated_at,
		(SELECT COUNT(*) FROM routes r WHERE r.service_area_id = a.id AND r.status = 'active') AS active_routes_count,
		(SELECT COUNT(*) FROM collector_service_areas csa
			JOIN collectors c ON c.id = csa.collector_id
			WHERE csa.service_area_id = a.id AND c.status = 'active') AS assigned_collectors_count
	FROM service_areas a`

func (s *Store) ListServiceAreas(ctx context.Context, f ListFilter) ([]models.ServiceArea, error) {
	var sc scope
	sc.addCompany("a.company_id", f.CompanyID)
	if f.Status != "" {
		sc.add("a.status = ?", f.Status)
	}
	for _, col := range []string{"province", "district", "sector"} {
		if v := f.Fields[col]; v != "" {
			sc.add("a."+col+" = ?", v)
		}
	}
	sc.addSearch(f.Search, "a.name", "a.code", "a.district", "a.sector", "a.cell")

	query := serviceAreaSelect + sc.clause() + orderBy(f.Ordering, map[string]string{
		"name":                "a.name",
		"code":                "a.code",
		"created_at":          "a.created_at",
		"estimated_customers": "a.estimated_customers",
	}, "a.name ASC")

	areas := []models.ServiceArea{}
	if err := s.db.SelectContext(ctx, &areas, query, sc.args...); err != nil {
		return nil, translate(err, "Service areas")
	}
	return areas, nil
}

// GetServiceArea returns the area if it belongs to companyID (nil: any tenant).
func (s *Store) GetServiceArea(ctx context.Context, id string, companyID *string) (*models.ServiceArea, error) {
	var sc scope
	sc.add("a.id = ?", id)
	sc.addCompany("a.company_id", companyID)

	var a models.ServiceArea
	if err := s.db.GetContext(ctx, &a, serviceAreaSelect+sc.clause(), sc.args...); err != nil {
		return nil, translate(err, "Service area")
	}
	return &a, nil
}

func (s *Store) CreateServiceArea(ctx context.Context, a *models.ServiceArea) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO service_areas (id, company_id, name, code, description, province, district, sector,
			cell, village, latitude, longitude, status, estimated_households, estimated_customers,
			created_by_user_id, created_at, updated_at)
		VALUES (:id, :company_id, :name, :code, :description, :province, :district, :sector,
			:cell, :village, :latitude, :longitude, :status, :estimated_households, :estimated_customers,
			:created_by_user_id, :created_at, :updated_at)`, a)
	return translate(err, "Service area")
}

func (s *Store) SetServiceAreaStatus(ctx context.Context, id string, companyID *string, status models.ServiceAreaStatus) (*models.ServiceArea, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE service_areas SET status = $1, updated_at = $2
		WHERE id = $3 AND ($4::TEXT IS NULL OR company_id = $4)`,
		status, s.now().Unix(), id, companyID)
	if err != nil {
		return nil, translate(err, "Service area")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, notFound("Service area")
	}
	return s.GetServiceArea(ctx, id, companyID)
}

func (s *Store) ServiceAreaStats(ctx context.Context, companyID *string) (*models.ServiceAreaStats, error) {
	var st models.ServiceAreaStats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			COUNT(*) AS total_areas,
			COUNT(*) FILTER (WHERE a.status = 'active') AS active_areas,
			COUNT(*) FILTER (WHERE a.status = 'inactive') AS inactive_areas,
			COUNT(*) FILTER (WHERE a.status = 'planned') AS planned_areas,
			COALESCE(SUM(a.estimated_households), 0) AS total_households,
			COALESCE(SUM(a.estimated_customers), 0) AS total_customers,
			(SELECT COUNT(*) FROM routes r
				JOIN service_areas ra ON ra.id = r.service_area_id
				WHERE r.status = 'active' AND ($1::TEXT IS NULL OR ra.company_id = $1)) AS total_routes,
			(SELECT COUNT(DISTINCT csa.collector_id) FROM collector_service_areas csa
				JOIN service_areas ca ON ca.id = csa.service_area_id
				JOIN collectors c ON c.id = csa.collector_id
				WHERE c.status = 'active' AND ($1::TEXT IS NULL OR ca.company_id = $1)) AS total_collectors
		FROM service_areas a
		WHERE ($1::TEXT IS NULL OR a.company_id = $1)`, companyID)
	if err != nil {
		return nil, translate(err, "Service area stats")
	}
	return &st, nil
}
