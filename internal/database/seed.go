package database

import (
	"context"
	"fmt"
	"log"

	"isuku-backend/internal/auth"
	"isuku-backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SeedUsers creates the platform administrator on an empty database.
func SeedUsers(ctx context.Context, s *Store) error {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding system administrator...")
	admin, err := auth.NewAccount("admin@isuku.rw", "admin123", "System", "Admin", models.RoleSystemAdmin, nil)
	if err != nil {
		return err
	}
	if err := s.CreateUser(ctx, admin); err != nil {
		return err
	}

	log.Println("✓ Successfully seeded system administrator")
	log.Println("  📧 Admin: admin@isuku.rw / admin123")
	return nil
}

// SeedDemoData creates one tenant with a service area, routes, collectors and
// card-holding customers. It does nothing when the tenant already exists.
func SeedDemoData(ctx context.Context, s *Store) error {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM companies WHERE name = $1", "Kigali Clean Co"); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Demo data already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding demo tenant...")
	now := s.now().Unix()
	licenseStart := models.DateOf(s.now())
	licenseEnd := licenseStart.AddDate(1, 0, 0)

	company := &models.Company{
		ID:                     uuid.New().String(),
		Name:                   "Kigali Clean Co",
		Email:                  "info@kigaliclean.rw",
		Status:                 models.CompanyStatusActive,
		IsVerified:             true,
		LicenseStartDate:       &licenseStart,
		LicenseEndDate:         &licenseEnd,
		MaxCustomers:           1000,
		MaxCollectors:          50,
		PrepaidCollectionPrice: decimal.NewFromInt(2000),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	companyAdmin, err := auth.NewAccount("manager@kigaliclean.rw", "manager123", "Claudine", "Mukamana", models.RoleCompanyAdmin, &company.ID)
	if err != nil {
		return err
	}
	if err := s.CreateCompanyWithAdmin(ctx, company, companyAdmin); err != nil {
		return fmt.Errorf("seed company: %w", err)
	}
	actor := companyAdmin.Actor()

	area := &models.ServiceArea{
		ID:                  uuid.New().String(),
		CompanyID:           &company.ID,
		Name:                "Kacyiru",
		Code:                "GSB-KCY",
		Province:            "Kigali City",
		District:            "Gasabo",
		Sector:              "Kacyiru",
		Status:              models.ServiceAreaStatusActive,
		EstimatedHouseholds: 1200,
		EstimatedCustomers:  800,
		CreatedByUserID:     actor.UserRef(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.CreateServiceArea(ctx, area); err != nil {
		return fmt.Errorf("seed service area: %w", err)
	}

	collectorUser, err := auth.NewAccount("collector@kigaliclean.rw", "collector123", "Eric", "Habimana", models.RoleCollector, &company.ID)
	if err != nil {
		return err
	}
	hired := licenseStart
	collector := &models.Collector{
		ID:              uuid.New().String(),
		CompanyID:       &company.ID,
		EmployeeID:      "KCC-001",
		FirstName:       "Eric",
		LastName:        "Habimana",
		Email:           collectorUser.Email,
		Phone:           "+250788000001",
		EmploymentType:  "full_time",
		HireDate:        &hired,
		Status:          models.CollectorStatusActive,
		Rating:          decimal.NewFromInt(5),
		CreatedByUserID: actor.UserRef(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.CreateCollector(ctx, collector, []string{area.ID}, collectorUser); err != nil {
		return fmt.Errorf("seed collector: %w", err)
	}

	start, end := "07:00", "11:00"
	routes := []*models.Route{
		{Name: "Kacyiru North", Code: "KCY-N", Frequency: models.FrequencyWeekly, CollectionDays: pq.StringArray{"Monday"}},
		{Name: "Kacyiru South", Code: "KCY-S", Frequency: models.FrequencyTwiceWeekly, CollectionDays: pq.StringArray{"Tuesday", "Friday"}},
		{Name: "Kamatamu", Code: "KCY-K", Frequency: models.FrequencyBiweekly},
	}
	for i, r := range routes {
		r.ID = uuid.New().String()
		r.ServiceAreaID = area.ID
		r.SequenceNumber = i + 1
		r.EstimatedDistanceKm = decimal.NewFromFloat(4.5)
		r.EstimatedDurationMinutes = 180
		r.CollectionTimeStart = &start
		r.CollectionTimeEnd = &end
		r.DefaultCollectorID = &collector.ID
		r.Status = models.RouteStatusActive
		r.CreatedByUserID = actor.UserRef()
		r.CreatedAt = now
		r.UpdatedAt = now
		if err := s.CreateRoute(ctx, r); err != nil {
			return fmt.Errorf("seed route %s: %w", r.Code, err)
		}
	}

	customers := []struct {
		card, first, last, email string
	}{
		{"10000001", "Aline", "Uwase", "aline@example.rw"},
		{"10000002", "Patrick", "Niyonzima", "patrick@example.rw"},
		{"10000003", "Grace", "Ingabire", "grace@example.rw"},
	}
	for i, c := range customers {
		account, err := auth.NewAccount(c.email, "customer123", c.first, c.last, models.RoleCustomer, &company.ID)
		if err != nil {
			return err
		}
		card := c.card
		customer := &models.Customer{
			ID:              uuid.New().String(),
			CompanyID:       &company.ID,
			CardNumber:      &card,
			RouteID:         &routes[i%len(routes)].ID,
			FirstName:       c.first,
			LastName:        c.last,
			Email:           c.email,
			District:        "Gasabo",
			Sector:          "Kacyiru",
			PrepaidBalance:  10,
			Status:          models.CustomerStatusActive,
			CreatedByUserID: actor.UserRef(),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.CreateCustomer(ctx, customer, account); err != nil {
			return fmt.Errorf("seed customer %s: %w", c.card, err)
		}
		log.Printf("  ✓ Created customer card %s (%s / customer123)", c.card, c.email)
	}

	log.Println("✓ Successfully seeded demo tenant")
	log.Println("  📧 Company admin: manager@kigaliclean.rw / manager123")
	log.Println("  📧 Collector:     collector@kigaliclean.rw / collector123")
	return nil
}
