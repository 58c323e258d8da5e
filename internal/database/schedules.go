package database

import (
	"context"
	"time"

	"isuku-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

const scheduleSelect = `
	SELECT s.id, s.route_id, s.collector_id, s.scheduled_date, s.scheduled_time_start,
		s.scheduled_time_end, s.waste_type, s.status, s.customers_scheduled, s.customers_collected,
		s.customers_missed, s.actual_start_time, s.actual_end_time, s.notes, s.cancellation_reason,
		s.created_by_user_id, s.created_at, s.updated_at,
		a.company_id, r.name AS route_name,
		NULLIF(TRIM(c.first_name || ' ' || c.last_name), '') AS collector_name
	FROM schedules s
	JOIN routes r ON r.id = s.route_id
	JOIN service_areas a ON a.id = r.service_area_id
	LEFT JOIN collectors c ON c.id = s.collector_id`

func (s *Store) ScheduleExists(ctx context.Context, routeID string, date time.Time) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM schedules WHERE route_id = $1 AND scheduled_date = $2)`,
		routeID, dateArg(date))
	if err != nil {
		return false, translate(err, "Schedule")
	}
	return exists, nil
}

// InsertSchedule fails with an error matching apperr.ErrConflict when the
// route already has a schedule on that date.
func (s *Store) InsertSchedule(ctx context.Context, sc *models.Schedule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, route_id, collector_id, scheduled_date, scheduled_time_start,
			scheduled_time_end, waste_type, status, customers_scheduled, customers_collected,
			customers_missed, notes, created_by_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		sc.ID, sc.RouteID, sc.CollectorID, dateArg(sc.ScheduledDate), sc.ScheduledTimeStart,
		sc.ScheduledTimeEnd, sc.WasteType, sc.Status, sc.CustomersScheduled, sc.CustomersCollected,
		sc.CustomersMissed, sc.Notes, sc.CreatedByUserID, sc.CreatedAt, sc.UpdatedAt)
	return translate(err, "Schedule")
}

func (s *Store) GetSchedule(ctx context.Context, id string, companyID *string) (*models.Schedule, error) {
	var sch models.Schedule
	err := s.db.GetContext(ctx, &sch, scheduleSelect+`
		WHERE s.id = $1 AND ($2::TEXT IS NULL OR a.company_id = $2)`, id, companyID)
	if err != nil {
		return nil, translate(err, "Schedule")
	}
	return &sch, nil
}

func (s *Store) ListSchedules(ctx context.Context, f models.ScheduleFilter) ([]models.Schedule, error) {
	var sc scope
	sc.addCompany("a.company_id", f.CompanyID)
	if f.Status != "" {
		sc.add("s.status = ?", string(f.Status))
	}
	if f.RouteID != "" {
		sc.add("s.route_id = ?", f.RouteID)
	}
	if f.CollectorID != "" {
		sc.add("s.collector_id = ?", f.CollectorID)
	}
	if f.From != nil {
		sc.add("s.scheduled_date >= ?", dateArg(*f.From))
	}
	if f.To != nil {
		sc.add("s.scheduled_date <= ?", dateArg(*f.To))
	}

	order := " ORDER BY s.scheduled_date DESC, s.scheduled_time_start ASC"
	if f.Ascending {
		order = " ORDER BY s.scheduled_date ASC, s.scheduled_time_start ASC"
	}
	query := scheduleSelect + sc.clause() + order
	if f.Limit > 0 {
		sc.args = append(sc.args, f.Limit)
		query += " LIMIT $" + itoa(len(sc.args))
	}

	schedules := []models.Schedule{}
	if err := s.db.SelectContext(ctx, &schedules, query, sc.args...); err != nil {
		return nil, translate(err, "Schedules")
	}
	return schedules, nil
}

// TransitionSchedule applies change to the schedule under a row lock. A
// completed schedule credits its collected customers to the collector.
func (s *Store) TransitionSchedule(ctx context.Context, id string, companyID *string, change models.ScheduleChange) (*models.Schedule, error) {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var current models.Schedule
		err := tx.GetContext(ctx, &current, `
			SELECT s.id, s.route_id, s.collector_id, s.scheduled_date, s.status, s.customers_scheduled,
				s.customers_collected, s.customers_missed, s.actual_start_time, s.actual_end_time,
				s.cancellation_reason, s.updated_at
			FROM schedules s
			JOIN routes r ON r.id = s.route_id
			JOIN service_areas a ON a.id = r.service_area_id
			WHERE s.id = $1 AND ($2::TEXT IS NULL OR a.company_id = $2)
			FOR UPDATE OF s`, id, companyID)
		if err != nil {
			return translate(err, "Schedule")
		}

		credited, err := current.Apply(change, s.now())
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE schedules SET status = $2, actual_start_time = $3, actual_end_time = $4,
				customers_collected = $5, customers_missed = $6, cancellation_reason = $7, updated_at = $8
			WHERE id = $1`,
			current.ID, current.Status, current.ActualStartTime, current.ActualEndTime,
			current.CustomersCollected, current.CustomersMissed, current.CancellationReason, current.UpdatedAt)
		if err != nil {
			return translate(err, "Schedule")
		}

		if credited > 0 && current.CollectorID != nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE collectors SET total_collections = total_collections + $2, updated_at = $3 WHERE id = $1`,
				*current.CollectorID, credited, current.UpdatedAt)
			if err != nil {
				return translate(err, "Collector")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetSchedule(ctx, id, companyID)
}
