package services

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/internal/status"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type testEnv struct {
	orgs      *repository.OrganizationRepository
	customers *repository.CustomerRepository
	config    *repository.ReminderConfigRepository
	messages  *repository.ReminderMessageRepository
	seeder    *SeedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repository.NewTestDB(t)
	config := repository.NewReminderConfigRepository(db)
	return &testEnv{
		orgs:      repository.NewOrganizationRepository(db),
		customers: repository.NewCustomerRepository(db),
		config:    config,
		messages:  repository.NewReminderMessageRepository(db),
		seeder:    NewSeedService(config),
	}
}

// provision creates an organization in UTC with quiet hours 21-8, active transport and default rules.
func (e *testEnv) provision(t *testing.T, orgID string) *model.Organization {
	t.Helper()
	ctx := context.Background()
	org, err := e.orgs.Create(ctx, &model.Organization{
		ID:                 orgID,
		Name:               "Main St Auto",
		Slug:               orgID,
		Phone:              "5550001111",
		Timezone:           "UTC",
		ReminderEnabled:    true,
		ReminderQuietStart: 21,
		ReminderQuietEnd:   8,
		SubscriptionStatus: "trial",
		SubscriptionTier:   "starter",
	})
	require.NoError(t, err)

	_, err = e.orgs.SaveTwilioConfig(ctx, orgID, &model.TwilioConfig{
		AccountSID:  "AC123",
		AuthToken:   "token",
		PhoneNumber: "+15559998888",
		IsActive:    true,
	})
	require.NoError(t, err)
	require.NoError(t, e.seeder.Seed(ctx, orgID))
	return org
}

// addCustomer stores a consented customer whose only vehicle has one record of serviceType due on dueDate.
func (e *testEnv) addCustomer(t *testing.T, orgID, phone, serviceType string, dueDate time.Time) *model.Customer {
	t.Helper()
	return e.addNamedCustomer(t, orgID, "Doe", phone, serviceType, dueDate)
}

func (e *testEnv) addNamedCustomer(t *testing.T, orgID, lastName, phone, serviceType string, dueDate time.Time) *model.Customer {
	t.Helper()
	c, err := e.customers.CreateGraph(context.Background(), orgID, &model.Customer{
		FirstName:  "John",
		LastName:   lastName,
		Phone:      phone,
		Status:     model.CustomerStatusUpToDate,
		SMSConsent: true,
		Vehicles: []*model.Vehicle{{
			Year:  2020,
			Make:  "Toyota",
			Model: "Camry",
			ServiceRecords: []*model.ServiceRecord{{
				ServiceDate:      dueDate.AddDate(0, 0, -90),
				MileageAtService: 45000,
				ServiceType:      serviceType,
				NextDueDate:      dueDate,
				NextDueMileage:   intPtr(50000),
			}},
		}},
	})
	require.NoError(t, err)
	return c
}

func today() time.Time {
	return status.CalendarDate(fixedNow)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}
