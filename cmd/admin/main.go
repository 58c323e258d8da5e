// Command admin creates a login account directly in the database.
package main

import (
	"context"
	"flag"
	"log"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/auth"
	"isuku-backend/internal/config"
	"isuku-backend/internal/database"
	"isuku-backend/internal/models"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	password := flag.String("password", "", "account password (required)")
	first := flag.String("first", "", "first name")
	last := flag.String("last", "", "last name")
	role := flag.String("role", string(models.RoleSystemAdmin), "system_admin or company_admin")
	company := flag.String("company", "", "company id, required for company_admin")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		log.Fatal("❌ -email and -password are required")
	}

	var companyID *string
	switch models.Role(*role) {
	case models.RoleSystemAdmin:
	case models.RoleCompanyAdmin:
		if *company == "" {
			log.Fatal("❌ -company is required for company_admin")
		}
		companyID = company
	default:
		log.Fatalf("❌ unsupported role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("🔌 Connected to database")

	ctx := context.Background()
	store := database.NewStore(db)
	if companyID != nil {
		if _, err := store.GetCompany(ctx, *companyID); err != nil {
			log.Fatalf("❌ Company %s: %v", *companyID, err)
		}
	}

	user, err := auth.NewAccount(*email, *password, *first, *last, models.Role(*role), companyID)
	if err != nil {
		log.Fatalf("❌ Failed to prepare account: %v", err)
	}
	if err := store.CreateUser(ctx, user); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			log.Printf("⚠️  User already exists: %s", user.Email)
			return
		}
		log.Fatalf("❌ Failed to create user %s: %v", user.Email, err)
	}

	log.Printf("✅ Created %s user: %s", user.Role, user.Email)
}
