// Command schedules generates collection schedules for every active route.
// Run it daily from cron to keep the horizon filled.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"isuku-backend/internal/config"
	"isuku-backend/internal/database"
	"isuku-backend/internal/models"
	"isuku-backend/internal/scheduling"
	"isuku-backend/internal/services"
)

func main() {
	startFlag := flag.String("start", "", "first date to generate (YYYY-MM-DD), default today")
	endFlag := flag.String("end", "", "last date to generate (YYYY-MM-DD), default covers SCHEDULE_HORIZON_DAYS dates from start")
	company := flag.String("company", "", "limit generation to one company id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	start, end, err := dateRange(*startFlag, *endFlag, cfg.ScheduleHorizonDays, time.Now())
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := database.NewStore(db)
	var companyID *string
	if *company != "" {
		companyID = company
	}
	routes, err := store.ListActiveRoutes(ctx, companyID)
	if err != nil {
		log.Fatalf("Failed to load routes: %v", err)
	}

	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("📅 Generating schedules for %d routes from %s to %s",
		len(routes), start.Format(models.DateLayout), end.Format(models.DateLayout))

	result := scheduling.NewGenerator(store).GenerateBatch(ctx, routes, start, end, models.SystemActor)

	fcm := services.ConfiguredFCMService(ctx, cfg.FirebaseCredentialsBase64, cfg.FirebaseCredentialsFile)
	notifier := services.NewScheduleNotifier(fcm, store)
	for _, rr := range result.Routes {
		if rr.Created > 0 {
			log.Printf("   ✅ %s: %d created", rr.RouteCode, rr.Created)
		}
		notifier.SchedulesAssigned(ctx, rr.Schedules)
	}

	log.Printf("✅ Created %d schedules, %d routes failed", result.TotalCreated, result.Failed)
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if result.Failed > 0 {
		os.Exit(1)
	}
}

// dateRange resolves the flags against today. The default range is inclusive
// and spans horizonDays dates.
func dateRange(startFlag, endFlag string, horizonDays int, now time.Time) (time.Time, time.Time, error) {
	start := models.DateOf(now)
	if startFlag != "" {
		t, err := time.Parse(models.DateLayout, startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -start %q: %w", startFlag, err)
		}
		start = t
	}
	end := start.AddDate(0, 0, horizonDays-1)
	if endFlag != "" {
		t, err := time.Parse(models.DateLayout, endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -end %q: %w", endFlag, err)
		}
		end = t
	}
	return start, end, nil
}
