package model

import (
	"time"

	"github.com/google/uuid"
)

type ServiceType struct {
	ID                      uuid.UUID `json:"id"`
	OrgID                   string    `json:"org_id"`
	Name                    string    `json:"name"`
	DisplayName             string    `json:"displayName"`
	DefaultMileageInterval  *int      `json:"defaultMileageInterval"`
	DefaultTimeIntervalDays int       `json:"defaultTimeIntervalDays"`
	ReminderLeadDays        int       `json:"reminderLeadDays"`
	IsActive                bool      `json:"isActive"`
	IsCustom                bool      `json:"isCustom"`
}

type ReminderTemplate struct {
	ID        uuid.UUID `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	IsDefault bool      `json:"is_default"`
}

// ReminderRule is one step of a service type's reminder campaign.
type ReminderRule struct {
	ID             uuid.UUID         `json:"id"`
	OrgID          string            `json:"org_id"`
	ServiceTypeID  uuid.UUID         `json:"service_type_id"`
	ServiceType    *ServiceType      `json:"service_type,omitempty"`
	SequenceNumber int               `json:"sequence_number"`
	OffsetDays     int               `json:"offset_days"`
	TemplateID     *uuid.UUID        `json:"template_id,omitempty"`
	Template       *ReminderTemplate `json:"template,omitempty"`
	IsActive       bool              `json:"is_active"`
}

type MessageDirection string

const (
	DirectionOutbound MessageDirection = "outbound"
	DirectionInbound  MessageDirection = "inbound"
)

// MessageStatus is the lifecycle state of a reminder message.
type MessageStatus string

const (
	MessageStatusQueued      MessageStatus = "queued"
	MessageStatusSent        MessageStatus = "sent"
	MessageStatusDelivered   MessageStatus = "delivered"
	MessageStatusFailed      MessageStatus = "failed"
	MessageStatusUndelivered MessageStatus = "undelivered"
)

// ActiveMessageStatuses block a new message for the same dedup tuple.
var ActiveMessageStatuses = []MessageStatus{MessageStatusQueued, MessageStatusSent, MessageStatusDelivered}

type ReminderMessage struct {
	ID              uuid.UUID        `json:"id"`
	OrgID           string           `json:"org_id"`
	CustomerID      uuid.UUID        `json:"customer_id"`
	VehicleID       uuid.UUID        `json:"vehicle_id"`
	ServiceRecordID uuid.UUID        `json:"service_record_id"`
	ReminderRuleID  uuid.UUID        `json:"reminder_rule_id"`
	TemplateID      *uuid.UUID       `json:"template_id,omitempty"`
	Direction       MessageDirection `json:"direction"`
	Status          MessageStatus    `json:"status"`
	ScheduledAt     time.Time        `json:"scheduled_at"`
	SentAt          *time.Time       `json:"sent_at,omitempty"`
	Body            string           `json:"body"`
	FromPhone       string           `json:"from_phone"`
	ToPhone         string           `json:"to_phone"`
	ProviderSID     *string          `json:"provider_sid,omitempty"`
	ErrorMessage    *string          `json:"error_message,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// DedupKey identifies the (customer, vehicle, service record, rule) tuple.
type DedupKey struct {
	CustomerID      uuid.UUID
	VehicleID       uuid.UUID
	ServiceRecordID uuid.UUID
	ReminderRuleID  uuid.UUID
}

func (m *ReminderMessage) DedupKey() DedupKey {
	return DedupKey{
		CustomerID:      m.CustomerID,
		VehicleID:       m.VehicleID,
		ServiceRecordID: m.ServiceRecordID,
		ReminderRuleID:  m.ReminderRuleID,
	}
}

// EvaluationResult summarizes one evaluation run. Skipped runs carry their reason in Errors.
type EvaluationResult struct {
	Queued  int      `json:"queued"`
	Errors  []string `json:"errors"`
	Skipped bool     `json:"skipped,omitempty"`
}

// DispatchJob is the payload published for each queued message.
type DispatchJob struct {
	MessageID uuid.UUID `json:"message_id"`
	OrgID     string    `json:"org_id"`
}

// ServiceTypeInput updates lead days of an existing type (ID set) or creates a custom one.
type ServiceTypeInput struct {
	ID                      *uuid.UUID `json:"id,omitempty"`
	Name                    string     `json:"name"`
	DisplayName             string     `json:"displayName"`
	DefaultMileageInterval  *int       `json:"defaultMileageInterval"`
	DefaultTimeIntervalDays int        `json:"defaultTimeIntervalDays"`
	ReminderLeadDays        int        `json:"reminderLeadDays"`
}

func (p ServiceTypeInput) Validate() error {
	if p.ReminderLeadDays < 0 {
		return invalid("reminderLeadDays cannot be negative")
	}
	if p.ID != nil {
		return nil
	}
	if p.Name == "" || p.DisplayName == "" {
		return invalid("name and displayName are required for a new service type")
	}
	if p.DefaultTimeIntervalDays <= 0 {
		return invalid("defaultTimeIntervalDays must be positive")
	}
	return nil
}

// ReminderSettingsView is what the settings endpoint returns.
type ReminderSettingsView struct {
	Settings     *ReminderSettings `json:"settings"`
	ServiceTypes []*ServiceType    `json:"serviceTypes"`
}

// ReminderSettingsUpdate is the settings write payload.
type ReminderSettingsUpdate struct {
	Settings     ReminderSettings   `json:"settings"`
	ServiceTypes []ServiceTypeInput `json:"serviceTypes"`
}
