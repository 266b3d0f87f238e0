package status

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

var today = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

func TestDeriveDueDate(t *testing.T) {
	serviceDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), DeriveDueDate(serviceDate, 90))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), DeriveDueDate(serviceDate, 365))
}

func TestCalendarDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	late := time.Date(2025, 3, 15, 23, 30, 0, 0, ny)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), CalendarDate(late))
}

func TestDeriveDueMileage(t *testing.T) {
	due := DeriveDueMileage(45000, intPtr(5000))
	require.NotNil(t, due)
	assert.Equal(t, 50000, *due)

	assert.Nil(t, DeriveDueMileage(45000, nil), "date-only service type")
	assert.Nil(t, DeriveDueMileage(45000, intPtr(0)))
}

func TestDeriveStatus(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name    string
		due     time.Time
		dueMi   *int
		current *int
		want    model.CustomerStatus
	}{
		{"due yesterday", today.AddDate(0, 0, -1), nil, nil, model.CustomerStatusOverdue},
		{"due today", today, nil, nil, model.CustomerStatusDueNow},
		{"due earlier today", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), nil, nil, model.CustomerStatusDueNow},
		{"due in a week", today.AddDate(0, 0, 7), nil, nil, model.CustomerStatusDueSoon},
		{"due at lead boundary", today.AddDate(0, 0, 14), nil, nil, model.CustomerStatusDueSoon},
		{"due in a month", today.AddDate(0, 1, 0), nil, nil, model.CustomerStatusUpToDate},
		{"mileage passed", today.AddDate(0, 2, 0), intPtr(50000), intPtr(50100), model.CustomerStatusOverdue},
		{"mileage close", today.AddDate(0, 2, 0), intPtr(50000), intPtr(49600), model.CustomerStatusDueSoon},
		{"mileage far", today.AddDate(0, 2, 0), intPtr(50000), intPtr(46000), model.CustomerStatusUpToDate},
		{"mileage unknown", today.AddDate(0, 2, 0), intPtr(50000), nil, model.CustomerStatusUpToDate},
		{"no mileage interval", today.AddDate(0, 2, 0), nil, intPtr(99999), model.CustomerStatusUpToDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.due, tt.dueMi, today, tt.current, th))
		})
	}
}

func TestDeriveStatus_DueNowWindow(t *testing.T) {
	th := DefaultThresholds()
	th.DueNowDays = 3

	assert.Equal(t, model.CustomerStatusDueNow, DeriveStatus(today.AddDate(0, 0, 3), nil, today, nil, th))
	assert.Equal(t, model.CustomerStatusDueSoon, DeriveStatus(today.AddDate(0, 0, 4), nil, today, nil, th))
}

func TestDeriveStatus_MonotonicInDueDate(t *testing.T) {
	th := DefaultThresholds()
	prev := DeriveStatus(today.AddDate(0, 0, -30), nil, today, nil, th)
	for offset := -29; offset <= 60; offset++ {
		cur := DeriveStatus(today.AddDate(0, 0, offset), nil, today, nil, th)
		assert.GreaterOrEqual(t, Urgency(cur), Urgency(prev), "offset %d", offset)
		prev = cur
	}
}

func TestMostUrgent(t *testing.T) {
	assert.Equal(t, model.CustomerStatusUpToDate, MostUrgent())
	assert.Equal(t, model.CustomerStatusDueNow, MostUrgent(model.CustomerStatusDueSoon, model.CustomerStatusDueNow, model.CustomerStatusUpToDate))
	assert.Equal(t, model.CustomerStatusOverdue, MostUrgent(model.CustomerStatusOverdue, model.CustomerStatusDueNow))
}

func TestForCustomer(t *testing.T) {
	c := &model.Customer{
		Vehicles: []*model.Vehicle{
			{
				ServiceRecords: []*model.ServiceRecord{
					{ServiceDate: today.AddDate(0, -4, 0), ServiceType: "state_inspection", NextDueDate: today.AddDate(0, 0, -5)},
					{ServiceDate: today.AddDate(0, -1, 0), ServiceType: "state_inspection", NextDueDate: today.AddDate(0, 0, 20)},
				},
			},
			{},
		},
	}

	assert.Equal(t, model.CustomerStatusUpToDate, ForCustomer(c, today, DefaultThresholds(), nil), "latest record only")
	assert.Equal(t, model.CustomerStatusDueSoon, ForCustomer(c, today, DefaultThresholds(), map[string]int{"state_inspection": 30}))
	assert.Equal(t, model.CustomerStatusUpToDate, ForCustomer(&model.Customer{}, today, DefaultThresholds(), nil))
}

func TestNormalizeServiceType(t *testing.T) {
	assert.Equal(t, "oil_change", NormalizeServiceType("oil_change_conventional"))
	assert.Equal(t, "oil_change", NormalizeServiceType("oil_change_synthetic"))
	assert.Equal(t, "oil_change", NormalizeServiceType("oil_change"))
	assert.Equal(t, "tire_rotation", NormalizeServiceType("tire_rotation"))
	assert.Equal(t, "brake_service", NormalizeServiceType(" Brake_Service "))
}

func TestMatchesServiceType(t *testing.T) {
	assert.True(t, MatchesServiceType("oil_change_conventional", "oil_change"))
	assert.True(t, MatchesServiceType("oil_change_synthetic", "oil_change"))
	assert.True(t, MatchesServiceType("oil_change_synthetic", "oil_change_conventional"))
	assert.True(t, MatchesServiceType("tire_rotation", "tire_rotation"))
	assert.False(t, MatchesServiceType("tire_rotation", "oil_change"))
	assert.False(t, MatchesServiceType("state_inspection", "inspection"))
}
