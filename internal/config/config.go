package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string

	JWTSecret string
	JWTTTL    time.Duration

	FirebaseCredentialsBase64 string
	FirebaseCredentialsFile   string

	// Optional; service areas created without coordinates are geocoded.
	GoogleMapsAPIKey string

	// Days ahead covered by cmd/schedules when no range is given.
	ScheduleHorizonDays int

	CORSAllowedOrigins []string
	SeedDemoData       bool
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Split from Load so tests can supply
// their own environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:               getenv("DATABASE_URL"),
		Port:                      getenv("PORT"),
		JWTSecret:                 getenv("APP_JWT_SECRET"),
		FirebaseCredentialsBase64: getenv("FIREBASE_CREDENTIALS_BASE64"),
		FirebaseCredentialsFile:   getenv("FIREBASE_CREDENTIALS_FILE"),
		GoogleMapsAPIKey:          getenv("GOOGLE_MAPS_API_KEY"),
		CORSAllowedOrigins:        []string{"*"},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.FirebaseCredentialsFile == "" {
		cfg.FirebaseCredentialsFile = "./firebase-service-account.json"
	}

	ttlHours, err := intEnv(getenv, "APP_JWT_TTL_HOURS", 7*24)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	if cfg.ScheduleHorizonDays, err = intEnv(getenv, "SCHEDULE_HORIZON_DAYS", 30); err != nil {
		return nil, err
	}

	if origins := getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if v := getenv("SEED_DEMO_DATA"); v != "" {
		if cfg.SeedDemoData, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("SEED_DEMO_DATA: %w", err)
		}
	}

	return cfg, nil
}

// RequireJWTSecret is checked by the commands that issue or verify tokens.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("APP_JWT_SECRET environment variable is required")
	}
	return nil
}

func intEnv(getenv func(string) string, name string, def int) (int, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}
