package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestRoute_TimeWindowFallsBackPerField(t *testing.T) {
	r := &Route{}
	assert.Equal(t, DefaultTimeWindow, r.TimeWindow())

	r.CollectionTimeEnd = strPtr("10:30")
	assert.Equal(t, TimeWindow{Start: "06:00", End: "10:30"}, r.TimeWindow())

	r.CollectionTimeStart = strPtr("")
	assert.Equal(t, "06:00", r.TimeWindow().Start)
}

func TestRoute_ScheduleDisplay(t *testing.T) {
	assert.Equal(t, "Twice Weekly on Monday, Thursday",
		(&Route{Frequency: FrequencyTwiceWeekly, CollectionDays: []string{"Monday", "Thursday"}}).ScheduleDisplay())
	assert.Equal(t, "Daily", (&Route{Frequency: FrequencyDaily}).ScheduleDisplay())
	assert.Equal(t, "Friday", (&Route{CollectionDays: []string{"Friday"}}).ScheduleDisplay())
	assert.Equal(t, "", (&Route{}).ScheduleDisplay())
}

func TestCompany_LicenseAndQuotas(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	ends := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	c := &Company{Status: CompanyStatusActive, LicenseEndDate: &ends, MaxCustomers: 2, MaxCollectors: 1, CustomerCount: 1, CollectorCount: 1}

	assert.True(t, c.IsLicenseValid(now), "license is valid through its last day")
	assert.False(t, c.IsLicenseValid(now.AddDate(0, 0, 1)))
	assert.True(t, c.IsActive(now))
	assert.True(t, c.CanAddCustomer())
	assert.False(t, c.CanAddCollector())

	c.Status = CompanyStatusSuspended
	assert.False(t, c.IsActive(now))
}

func TestCollectorPerformance_CompletionRate(t *testing.T) {
	p := CollectorPerformance{TotalSchedules: 3, CompletedSchedules: 2}
	p.ComputeCompletionRate()
	assert.Equal(t, 66.67, p.CompletionRate)

	empty := CollectorPerformance{Rating: decimal.NewFromFloat(4.5)}
	empty.ComputeCompletionRate()
	assert.Zero(t, empty.CompletionRate)
}

func TestActor_CanAccessCompany(t *testing.T) {
	a := Actor{Role: RoleCompanyAdmin, CompanyID: strPtr("c1")}

	assert.True(t, a.CanAccessCompany(strPtr("c1")))
	assert.False(t, a.CanAccessCompany(strPtr("c2")))
	assert.False(t, a.CanAccessCompany(nil))
	assert.True(t, SystemActor.CanAccessCompany(strPtr("c2")))
	assert.Nil(t, SystemActor.UserRef())
}

func TestCustomer_DisplayName(t *testing.T) {
	c := &Customer{FirstName: "Aline", LastName: "Uwase"}
	assert.Equal(t, "Aline Uwase", c.DisplayName())

	c.CompanyName = "Hotel Mille"
	assert.Equal(t, "Hotel Mille - Aline Uwase", c.DisplayName())
}
