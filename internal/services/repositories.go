package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
)

// Every repository method takes the organization id explicitly.

type OrganizationRepository interface {
	Get(ctx context.Context, orgID string) (*model.Organization, error)
	Create(ctx context.Context, org *model.Organization) (*model.Organization, error)
	UpdateReminderSettings(ctx context.Context, orgID string, s model.ReminderSettings) error
	ListReminderEnabled(ctx context.Context) ([]*model.Organization, error)
	GetTwilioConfig(ctx context.Context, orgID string) (*model.TwilioConfig, error)
}

type CustomerRepository interface {
	FindByPhone(ctx context.Context, orgID, phone string) (*model.Customer, error)
	CreateGraph(ctx context.Context, orgID string, c *model.Customer) (*model.Customer, error)
	Get(ctx context.Context, orgID string, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, orgID string, f model.CustomerFilter) ([]*model.Customer, int64, error)
	ListConsented(ctx context.Context, orgID string) ([]*model.Customer, error)
	UpdateStatus(ctx context.Context, orgID string, id uuid.UUID, status model.CustomerStatus) error
	UpdateConsent(ctx context.Context, orgID string, id uuid.UUID, consent bool, at *time.Time) error
	GetVehicle(ctx context.Context, orgID string, customerID, vehicleID uuid.UUID) (*model.Vehicle, error)
	AddServiceRecord(ctx context.Context, orgID string, rec *model.ServiceRecord) (*model.ServiceRecord, error)
	AddConsentLog(ctx context.Context, orgID string, l *model.ConsentLog) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ReminderConfigRepository interface {
	CountServiceTypes(ctx context.Context, orgID string) (int64, error)
	CountTemplates(ctx context.Context, orgID string) (int64, error)
	CountRules(ctx context.Context, orgID string) (int64, error)
	ListServiceTypes(ctx context.Context, orgID string) ([]*model.ServiceType, error)
	CreateServiceTypes(ctx context.Context, orgID string, types []*model.ServiceType) ([]*model.ServiceType, error)
	UpdateLeadDays(ctx context.Context, orgID string, id uuid.UUID, leadDays int) error
	ListTemplates(ctx context.Context, orgID string) ([]*model.ReminderTemplate, error)
	CreateTemplates(ctx context.Context, orgID string, templates []*model.ReminderTemplate) ([]*model.ReminderTemplate, error)
	CreateRules(ctx context.Context, orgID string, rules []*model.ReminderRule) ([]*model.ReminderRule, error)
	ListActiveRules(ctx context.Context, orgID string) ([]*model.ReminderRule, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ReminderMessageRepository interface {
	ExistsActive(ctx context.Context, orgID string, key model.DedupKey) (bool, error)
	Create(ctx context.Context, orgID string, msg *model.ReminderMessage) (*model.ReminderMessage, error)
}

// DispatchPublisher hands queued messages to the dispatcher.
type DispatchPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}
