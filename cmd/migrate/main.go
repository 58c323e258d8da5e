package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"isuku-backend/internal/config"
	"isuku-backend/internal/database"
)

func main() {
	seed := flag.Bool("seed", false, "seed the system administrator and demo tenant after migrating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *seed {
		ctx := context.Background()
		store := database.NewStore(db)
		if err := database.SeedUsers(ctx, store); err != nil {
			log.Fatalf("User seeding failed: %v", err)
		}
		if err := database.SeedDemoData(ctx, store); err != nil {
			log.Fatalf("Demo data seeding failed: %v", err)
		}
	}

	var result struct {
		Companies    int `db:"companies"`
		ServiceAreas int `db:"service_areas"`
		Routes       int `db:"routes"`
		Collectors   int `db:"collectors"`
		Customers    int `db:"customers"`
		Schedules    int `db:"schedules"`
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM companies) AS companies,
			(SELECT COUNT(*) FROM service_areas) AS service_areas,
			(SELECT COUNT(*) FROM routes) AS routes,
			(SELECT COUNT(*) FROM collectors) AS collectors,
			(SELECT COUNT(*) FROM customers) AS customers,
			(SELECT COUNT(*) FROM schedules) AS schedules
	`
	if err := db.Get(&result, query); err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Companies:       %d\n", result.Companies)
	fmt.Printf("Service areas:   %d\n", result.ServiceAreas)
	fmt.Printf("Routes:          %d\n", result.Routes)
	fmt.Printf("Collectors:      %d\n", result.Collectors)
	fmt.Printf("Customers:       %d\n", result.Customers)
	fmt.Printf("Schedules:       %d\n", result.Schedules)
	fmt.Println("============================================================")
}
