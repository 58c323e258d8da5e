package database

import (
	"context"

	"isuku-backend/internal/models"

	"github.com/lib/pq"
)

const routeSelect = `
	SELECT r.id, r.service_area_id, r.name, r.code, r.description, r.sequence_number,
		r.estimated_distance_km, r.estimated_duration_minutes, r.frequency, r.collection_days,
		r.collection_time_start, r.collection_time_end, r.default_collector_id, r.status, r.notes,
		r.archived_at, r.created_by_user_id, r.created_at, r.updated_at,
		a.company_id, a.name AS service_area_name,
		(SELECT COUNT(*) FROM customers cu WHERE cu.route_id = r.id AND cu.status = 'active') AS customers_count
	FROM routes r
	JOIN service_areas a ON a.id = r.service_area_id`

func (s *Store) ListRoutes(ctx context.Context, f ListFilter) ([]models.Route, error) {
	var sc scope
	sc.addCompany("a.company_id", f.CompanyID)
	if f.Status != "" {
		sc.add("r.status = ?", f.Status)
	} else {
		sc.where = append(sc.where, "r.status <> 'archived'")
	}
	if v := f.Fields["service_area"]; v != "" {
		sc.add("r.service_area_id = ?", v)
	}
	if v := f.Fields["frequency"]; v != "" {
		sc.add("r.frequency = ?", v)
	}
	if v := f.Fields["default_collector"]; v != "" {
		sc.add("r.default_collector_id = ?", v)
	}
	sc.addSearch(f.Search, "r.name", "r.code", "r.description")

	query := routeSelect + sc.clause() + orderBy(f.Ordering, map[string]string{
		"name":            "r.name",
		"code":            "r.code",
		"sequence_number": "r.sequence_number",
		"created_at":      "r.created_at",
	}, "a.name ASC, r.sequence_number ASC")

	routes := []models.Route{}
	if err := s.db.SelectContext(ctx, &routes, query, sc.args...); err != nil {
		return nil, translate(err, "Routes")
	}
	return routes, nil
}

// ListActiveRoutes returns every active route, optionally for one tenant.
// Batch schedule generation walks this list.
func (s *Store) ListActiveRoutes(ctx context.Context, companyID *string) ([]models.Route, error) {
	return s.ListRoutes(ctx, ListFilter{CompanyID: companyID, Status: string(models.RouteStatusActive)})
}

func (s *Store) GetRoute(ctx context.Context, id string, companyID *string) (*models.Route, error) {
	var sc scope
	sc.add("r.id = ?", id)
	sc.addCompany("a.company_id", companyID)

	var r models.Route
	if err := s.db.GetContext(ctx, &r, routeSelect+sc.clause(), sc.args...); err != nil {
		return nil, translate(err, "Route")
	}
	return &r, nil
}

func (s *Store) CreateRoute(ctx context.Context, r *models.Route) error {
	if r.CollectionDays == nil {
		r.CollectionDays = pq.StringArray{}
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO routes (id, service_area_id, name, code, description, sequence_number,
			estimated_distance_km, estimated_duration_minutes, frequency, collection_days,
			collection_time_start, collection_time_end, default_collector_id, status, notes,
			created_by_user_id, created_at, updated_at)
		VALUES (:id, :service_area_id, :name, :code, :description, :sequence_number,
			:estimated_distance_km, :estimated_duration_minutes, :frequency, :collection_days,
			:collection_time_start, :collection_time_end, :default_collector_id, :status, :notes,
			:created_by_user_id, :created_at, :updated_at)`, r)
	return translate(err, "Route")
}

// UpdateRoute writes the editable fields of r back.
func (s *Store) UpdateRoute(ctx context.Context, r *models.Route) error {
	r.UpdatedAt = s.now().Unix()
	if r.CollectionDays == nil {
		r.CollectionDays = pq.StringArray{}
	}
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE routes SET name = :name, description = :description, sequence_number = :sequence_number,
			estimated_distance_km = :estimated_distance_km, estimated_duration_minutes = :estimated_duration_minutes,
			frequency = :frequency, collection_days = :collection_days,
			collection_time_start = :collection_time_start, collection_time_end = :collection_time_end,
			default_collector_id = :default_collector_id, status = :status, notes = :notes,
			archived_at = :archived_at, updated_at = :updated_at
		WHERE id = :id`, r)
	if err != nil {
		return translate(err, "Route")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Route")
	}
	return nil
}

// ArchiveRoute soft-deletes a route. Its schedules stay as history.
func (s *Store) ArchiveRoute(ctx context.Context, id string, companyID *string) (*models.Route, error) {
	r, err := s.GetRoute(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if r.Status == models.RouteStatusArchived {
		return r, nil
	}
	now := s.now().Unix()
	r.Status = models.RouteStatusArchived
	r.ArchivedAt = &now
	if err := s.UpdateRoute(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) ListRoutesForCollector(ctx context.Context, collectorID string, companyID *string) ([]models.Route, error) {
	return s.ListRoutes(ctx, ListFilter{CompanyID: companyID, Fields: map[string]string{"default_collector": collectorID}})
}

// NextSequenceNumber returns one past the highest sequence number used in a
// service area.
func (s *Store) NextSequenceNumber(ctx context.Context, serviceAreaID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM routes WHERE service_area_id = $1`, serviceAreaID)
	if err != nil {
		return 0, translate(err, "Route sequence")
	}
	return n, nil
}
