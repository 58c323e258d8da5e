package main

import (
	"context"
	"log"
	"net/http"

	"isuku-backend/internal/auth"
	"isuku-backend/internal/config"
	"isuku-backend/internal/database"
	"isuku-backend/internal/handlers"
	"isuku-backend/internal/middleware"
	"isuku-backend/internal/models"
	"isuku-backend/internal/scheduling"
	"isuku-backend/internal/services"
	"isuku-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func fatal(what string, err error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("❌ FATAL ERROR: %s", what)
	log.Printf("   Error: %v", err)
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Fatal(err)
}

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 ISUKU BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	log.Println("📂 Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		fatal("Configuration invalid", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		fatal("Configuration invalid", err)
	}
	log.Println("✅ Configuration loaded")

	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Println("   This is usually caused by:")
		log.Println("   1. Wrong DATABASE_URL format")
		log.Println("   2. PostgreSQL service is down")
		log.Println("   3. Invalid credentials")
		fatal("Database connection failed", err)
	}
	defer db.Close()
	log.Println("✅ Database connection established")

	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		fatal("Database migrations failed", err)
	}
	log.Println("✅ Database migrations completed")

	ctx := context.Background()
	store := database.NewStore(db)

	log.Println("🌱 Seeding database with initial data...")
	if err := database.SeedUsers(ctx, store); err != nil {
		fatal("User seeding failed", err)
	}
	if cfg.SeedDemoData {
		if err := database.SeedDemoData(ctx, store); err != nil {
			fatal("Demo data seeding failed", err)
		}
	}
	log.Println("✅ Seeding completed")

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	authn := auth.NewAuthenticator(store, tokens)
	gen := scheduling.NewGenerator(store)

	fcm := services.ConfiguredFCMService(ctx, cfg.FirebaseCredentialsBase64, cfg.FirebaseCredentialsFile)
	notifier := services.NewScheduleNotifier(fcm, store)
	geocoder := services.NewGeocodingService(cfg.GoogleMapsAPIKey)
	if geocoder == nil {
		log.Println("⚠️  GOOGLE_MAPS_API_KEY not set, service areas will not be geocoded")
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()
	log.Println("✅ WebSocket hub started")

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health(db))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(hub, tokens))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", handlers.Login(authn, store))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))

			r.Get("/auth/me", handlers.Me(store))

			// Platform administration
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleSystemAdmin))

				r.Get("/companies", handlers.ListCompanies(store))
				r.Post("/companies", handlers.CreateCompany(store))
				r.Get("/companies/{id}", handlers.GetCompany(store))
				r.Post("/companies/{id}/suspend", handlers.SetCompanyStatus(store, models.CompanyStatusSuspended))
				r.Post("/companies/{id}/activate", handlers.SetCompanyStatus(store, models.CompanyStatusActive))
				r.Get("/stats", handlers.PlatformStats(store))
			})

			// Tenant management
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleSystemAdmin, models.RoleCompanyAdmin))

				r.Route("/service-areas", func(r chi.Router) {
					r.Get("/", handlers.ListServiceAreas(store))
					r.Post("/", handlers.CreateServiceArea(store, geocoder))
					r.Get("/stats", handlers.ServiceAreaStats(store))
					r.Get("/{id}", handlers.GetServiceArea(store))
					r.Post("/{id}/activate", handlers.SetServiceAreaStatus(store, models.ServiceAreaStatusActive))
					r.Post("/{id}/deactivate", handlers.SetServiceAreaStatus(store, models.ServiceAreaStatusInactive))
					r.Get("/{id}/routes", handlers.ServiceAreaRoutes(store))
					r.Get("/{id}/collectors", handlers.ServiceAreaCollectors(store))
				})

				r.Route("/routes", func(r chi.Router) {
					r.Get("/", handlers.GetRoutes(store))
					r.Post("/", handlers.CreateRoute(store))
					r.Post("/generate-schedules", handlers.GenerateSchedules(store, gen, store, hub, notifier, cfg.ScheduleHorizonDays))
					r.Get("/{id}", handlers.GetRoute(store))
					r.Patch("/{id}", handlers.UpdateRoute(store))
					r.Delete("/{id}", handlers.ArchiveRoute(store))
					r.Post("/{id}/assign-collector", handlers.AssignCollector(store))
					r.Get("/{id}/schedules", handlers.RouteSchedules(store))
					r.Post("/{id}/generate-schedule", handlers.GenerateSchedule(store, gen, store, hub, notifier))
				})

				r.Route("/collectors", func(r chi.Router) {
					r.Get("/", handlers.ListCollectors(store))
					r.Post("/", handlers.CreateCollector(store))
					r.Get("/available", handlers.AvailableCollectors(store))
					r.Get("/{id}", handlers.GetCollector(store))
					r.Post("/{id}/activate", handlers.SetCollectorStatus(store, models.CollectorStatusActive))
					r.Post("/{id}/suspend", handlers.SetCollectorStatus(store, models.CollectorStatusSuspended))
					r.Post("/{id}/on-leave", handlers.SetCollectorStatus(store, models.CollectorStatusOnLeave))
					r.Get("/{id}/routes", handlers.CollectorRoutes(store))
					r.Get("/{id}/schedules", handlers.CollectorSchedules(store))
					r.Get("/{id}/performance", handlers.CollectorPerformance(store))
				})

				r.Route("/schedules", func(r chi.Router) {
					r.Get("/", handlers.ListSchedules(store))
					r.Post("/", handlers.CreateSchedule(store, hub, notifier))
					r.Get("/today", handlers.TodaySchedules(store))
					r.Get("/upcoming", handlers.UpcomingSchedules(store))
					r.Get("/overdue", handlers.OverdueSchedules(store))
					r.Get("/{id}", handlers.GetSchedule(store))
					r.Post("/{id}/start", handlers.TransitionSchedule(store, hub, models.ActionStart))
					r.Post("/{id}/complete", handlers.TransitionSchedule(store, hub, models.ActionComplete))
					r.Post("/{id}/cancel", handlers.TransitionSchedule(store, hub, models.ActionCancel))
					r.Post("/{id}/mark-missed", handlers.TransitionSchedule(store, hub, models.ActionMarkMissed))
				})

				r.Route("/customers", func(r chi.Router) {
					r.Get("/", handlers.ListCustomers(store))
					r.Post("/", handlers.CreateCustomer(store))
					r.Get("/{id}", handlers.GetCustomer(store))
					r.Delete("/{id}", handlers.ArchiveCustomer(store))
				})
			})

			// Collector app
			r.Route("/collector", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleCollector))

				r.Get("/schedules/today", handlers.MyTodaySchedules(store))
				r.Get("/schedules", handlers.MySchedules(store))
				r.Post("/schedules/{id}/start", handlers.MyScheduleTransition(store, hub, models.ActionStart))
				r.Post("/schedules/{id}/complete", handlers.MyScheduleTransition(store, hub, models.ActionComplete))
				r.Post("/fcm-token", handlers.RegisterFCMToken(store))
				r.Post("/logs", handlers.ReceiveDiagnosticLog())
			})

			// Customer portal
			r.Route("/portal", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleCustomer))

				r.Get("/profile", handlers.MyProfile(store))
				r.Get("/schedules", handlers.MyUpcomingCollections(store))
			})
		})
	})

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		fatal("Server failed to start on port "+cfg.Port, err)
	}
}
