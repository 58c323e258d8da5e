package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔌 DATABASE CONNECTION ATTEMPT")
	log.Printf("   📍 Database URL length: %d characters", len(dbURL))
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Println("❌ DATABASE CONNECTION FAILED AT sqlx.Connect()")
		log.Printf("   Error: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Println("❌ DATABASE CONNECTION FAILED AT Ping()")
		log.Printf("   Error: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ DATABASE CONNECTION SUCCESSFUL")
	return db, nil
}

// Migrations are idempotent and run in order on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		registration_number TEXT UNIQUE,
		email TEXT NOT NULL,
		phone TEXT,
		status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'suspended', 'inactive')),
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		license_start_date DATE,
		license_end_date DATE,
		max_customers INT NOT NULL DEFAULT 1000,
		max_collectors INT NOT NULL DEFAULT 50,
		prepaid_collection_price NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_by_user_id TEXT,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		phone TEXT,
		role TEXT NOT NULL CHECK(role IN ('system_admin', 'company_admin', 'collector', 'customer')),
		company_id TEXT REFERENCES companies(id) ON DELETE SET NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		last_login_at BIGINT,
		last_login_ip TEXT,
		failed_login_attempts INT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_company ON users(company_id)`,

	`CREATE TABLE IF NOT EXISTS service_areas (
		id TEXT PRIMARY KEY,
		company_id TEXT REFERENCES companies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		province TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT '',
		cell TEXT NOT NULL DEFAULT '',
		village TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'inactive', 'planned')),
		estimated_households INT NOT NULL DEFAULT 0,
		estimated_customers INT NOT NULL DEFAULT 0,
		created_by_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_service_areas_company_status ON service_areas(company_id, status)`,

	`CREATE TABLE IF NOT EXISTS collectors (
		id TEXT PRIMARY KEY,
		company_id TEXT REFERENCES companies(id) ON DELETE CASCADE,
		user_id TEXT UNIQUE REFERENCES users(id) ON DELETE SET NULL,
		employee_id TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL,
		national_id TEXT NOT NULL DEFAULT '',
		employment_type TEXT NOT NULL DEFAULT 'full_time' CHECK(employment_type IN ('full_time', 'part_time', 'contractor', 'temporary')),
		hire_date DATE,
		termination_date DATE,
		device_id TEXT NOT NULL DEFAULT '',
		nfc_reader_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'on_leave', 'inactive', 'suspended')),
		rating NUMERIC(3,2) NOT NULL DEFAULT 5.00,
		total_collections INT NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_by_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_collectors_company_status ON collectors(company_id, status)`,

	`CREATE TABLE IF NOT EXISTS collector_service_areas (
		collector_id TEXT NOT NULL REFERENCES collectors(id) ON DELETE CASCADE,
		service_area_id TEXT NOT NULL REFERENCES service_areas(id) ON DELETE CASCADE,
		PRIMARY KEY (collector_id, service_area_id)
	)`,

	`CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		service_area_id TEXT NOT NULL REFERENCES service_areas(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		sequence_number INT NOT NULL DEFAULT 1,
		estimated_distance_km NUMERIC(6,2) NOT NULL DEFAULT 0,
		estimated_duration_minutes INT NOT NULL DEFAULT 0,
		frequency TEXT NOT NULL DEFAULT 'weekly' CHECK(frequency IN ('', 'daily', 'weekly', 'twice_weekly', 'biweekly', 'monthly')),
		collection_days TEXT[] NOT NULL DEFAULT '{}',
		collection_time_start TEXT,
		collection_time_end TEXT,
		default_collector_id TEXT REFERENCES collectors(id) ON DELETE SET NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'inactive', 'archived')),
		notes TEXT NOT NULL DEFAULT '',
		archived_at BIGINT,
		created_by_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		UNIQUE (service_area_id, sequence_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_routes_status ON routes(status)`,

	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		company_id TEXT REFERENCES companies(id) ON DELETE CASCADE,
		card_number TEXT UNIQUE CHECK(card_number ~ '^[0-9]{8}$'),
		user_id TEXT UNIQUE REFERENCES users(id) ON DELETE SET NULL,
		route_id TEXT REFERENCES routes(id) ON DELETE SET NULL,
		company_name TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT '',
		cell TEXT NOT NULL DEFAULT '',
		village TEXT NOT NULL DEFAULT '',
		street TEXT NOT NULL DEFAULT '',
		prepaid_balance INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'suspended', 'archived')),
		notes TEXT NOT NULL DEFAULT '',
		archived_at BIGINT,
		created_by_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_company_status ON customers(company_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_route ON customers(route_id)`,

	`CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		route_id TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		collector_id TEXT REFERENCES collectors(id) ON DELETE SET NULL,
		scheduled_date DATE NOT NULL,
		scheduled_time_start TEXT,
		scheduled_time_end TEXT,
		waste_type TEXT NOT NULL DEFAULT 'mixed' CHECK(waste_type IN ('biodegradable', 'non_biodegradable', 'mixed')),
		status TEXT NOT NULL DEFAULT 'scheduled' CHECK(status IN ('scheduled', 'in_progress', 'completed', 'cancelled', 'missed')),
		customers_scheduled INT NOT NULL DEFAULT 0,
		customers_collected INT NOT NULL DEFAULT 0,
		customers_missed INT NOT NULL DEFAULT 0,
		actual_start_time BIGINT,
		actual_end_time BIGINT,
		notes TEXT NOT NULL DEFAULT '',
		cancellation_reason TEXT NOT NULL DEFAULT '',
		created_by_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		CONSTRAINT schedules_route_date_key UNIQUE (route_id, scheduled_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_date_status ON schedules(scheduled_date, status)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_collector_date ON schedules(collector_id, scheduled_date)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT,
		ip_address TEXT,
		user_agent TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id)`,

	`CREATE TABLE IF NOT EXISTS fcm_tokens (
		id SERIAL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		device_type TEXT NOT NULL DEFAULT 'android' CHECK(device_type IN ('ios', 'android')),
		created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
		updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user ON fcm_tokens(user_id)`,
}

func Migrate(db *sqlx.DB) error {
	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
