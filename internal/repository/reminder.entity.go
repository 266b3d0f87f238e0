package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/pg"
)

type ServiceTypeEntity struct {
	pg.Model
	OrgID                   string `gorm:"column:org_id;not null;uniqueIndex:ux_service_types_org_name"`
	Name                    string `gorm:"column:name;not null;uniqueIndex:ux_service_types_org_name"`
	DisplayName             string `gorm:"column:display_name;not null"`
	DefaultMileageInterval  *int   `gorm:"column:default_mileage_interval"`
	DefaultTimeIntervalDays int    `gorm:"column:default_time_interval_days;not null"`
	ReminderLeadDays        int    `gorm:"column:reminder_lead_days;not null"`
	IsActive                bool   `gorm:"column:is_active;not null"`
	IsCustom                bool   `gorm:"column:is_custom;not null"`
}

func (ServiceTypeEntity) TableName() string {
	return "service_types"
}

type ReminderTemplateEntity struct {
	pg.Model
	OrgID     string `gorm:"column:org_id;not null;index"`
	Name      string `gorm:"column:name;not null"`
	Body      string `gorm:"column:body;not null"`
	IsDefault bool   `gorm:"column:is_default;not null"`
}

func (ReminderTemplateEntity) TableName() string {
	return "reminder_templates"
}

type ReminderRuleEntity struct {
	pg.Model
	OrgID          string                  `gorm:"column:org_id;not null;index"`
	ServiceTypeID  uuid.UUID               `gorm:"column:service_type_id;type:uuid;not null"`
	ServiceType    *ServiceTypeEntity      `gorm:"foreignKey:ServiceTypeID;references:ID"`
	SequenceNumber int                     `gorm:"column:sequence_number;not null"`
	OffsetDays     int                     `gorm:"column:offset_days;not null"`
	TemplateID     *uuid.UUID              `gorm:"column:template_id;type:uuid"`
	Template       *ReminderTemplateEntity `gorm:"foreignKey:TemplateID;references:ID"`
	IsActive       bool                    `gorm:"column:is_active;not null"`
}

func (ReminderRuleEntity) TableName() string {
	return "reminder_rules"
}

type ReminderMessageEntity struct {
	pg.Model
	OrgID           string     `gorm:"column:org_id;not null;index"`
	CustomerID      uuid.UUID  `gorm:"column:customer_id;type:uuid;not null"`
	VehicleID       uuid.UUID  `gorm:"column:vehicle_id;type:uuid;not null"`
	ServiceRecordID uuid.UUID  `gorm:"column:service_record_id;type:uuid;not null"`
	ReminderRuleID  uuid.UUID  `gorm:"column:reminder_rule_id;type:uuid;not null"`
	TemplateID      *uuid.UUID `gorm:"column:template_id;type:uuid"`
	Direction       string     `gorm:"column:direction;not null"`
	Status          string     `gorm:"column:status;not null;index"`
	ScheduledAt     time.Time  `gorm:"column:scheduled_at;not null"`
	SentAt          *time.Time `gorm:"column:sent_at"`
	Body            string     `gorm:"column:body;not null"`
	FromPhone       string     `gorm:"column:from_phone;not null"`
	ToPhone         string     `gorm:"column:to_phone;not null"`
	ProviderSID     *string    `gorm:"column:provider_sid"`
	ErrorMessage    *string    `gorm:"column:error_message"`
}

func (ReminderMessageEntity) TableName() string {
	return "reminder_messages"
}

func toServiceTypeEntity(m *model.ServiceType) *ServiceTypeEntity {
	return &ServiceTypeEntity{
		Model:                   pg.Model{ID: m.ID},
		OrgID:                   m.OrgID,
		Name:                    m.Name,
		DisplayName:             m.DisplayName,
		DefaultMileageInterval:  m.DefaultMileageInterval,
		DefaultTimeIntervalDays: m.DefaultTimeIntervalDays,
		ReminderLeadDays:        m.ReminderLeadDays,
		IsActive:                m.IsActive,
		IsCustom:                m.IsCustom,
	}
}

func toServiceTypeModel(e *ServiceTypeEntity) *model.ServiceType {
	if e == nil {
		return nil
	}
	return &model.ServiceType{
		ID:                      e.ID,
		OrgID:                   e.OrgID,
		Name:                    e.Name,
		DisplayName:             e.DisplayName,
		DefaultMileageInterval:  e.DefaultMileageInterval,
		DefaultTimeIntervalDays: e.DefaultTimeIntervalDays,
		ReminderLeadDays:        e.ReminderLeadDays,
		IsActive:                e.IsActive,
		IsCustom:                e.IsCustom,
	}
}

func toServiceTypeModels(entities []*ServiceTypeEntity) []*model.ServiceType {
	models := make([]*model.ServiceType, len(entities))
	for i, e := range entities {
		models[i] = toServiceTypeModel(e)
	}
	return models
}

func toTemplateEntity(m *model.ReminderTemplate) *ReminderTemplateEntity {
	return &ReminderTemplateEntity{
		Model:     pg.Model{ID: m.ID},
		OrgID:     m.OrgID,
		Name:      m.Name,
		Body:      m.Body,
		IsDefault: m.IsDefault,
	}
}

func toTemplateModel(e *ReminderTemplateEntity) *model.ReminderTemplate {
	if e == nil {
		return nil
	}
	return &model.ReminderTemplate{
		ID:        e.ID,
		OrgID:     e.OrgID,
		Name:      e.Name,
		Body:      e.Body,
		IsDefault: e.IsDefault,
	}
}

func toTemplateModels(entities []*ReminderTemplateEntity) []*model.ReminderTemplate {
	models := make([]*model.ReminderTemplate, len(entities))
	for i, e := range entities {
		models[i] = toTemplateModel(e)
	}
	return models
}

func toRuleEntity(m *model.ReminderRule) *ReminderRuleEntity {
	return &ReminderRuleEntity{
		Model:          pg.Model{ID: m.ID},
		OrgID:          m.OrgID,
		ServiceTypeID:  m.ServiceTypeID,
		SequenceNumber: m.SequenceNumber,
		OffsetDays:     m.OffsetDays,
		TemplateID:     m.TemplateID,
		IsActive:       m.IsActive,
	}
}

func toRuleModel(e *ReminderRuleEntity) *model.ReminderRule {
	return &model.ReminderRule{
		ID:             e.ID,
		OrgID:          e.OrgID,
		ServiceTypeID:  e.ServiceTypeID,
		ServiceType:    toServiceTypeModel(e.ServiceType),
		SequenceNumber: e.SequenceNumber,
		OffsetDays:     e.OffsetDays,
		TemplateID:     e.TemplateID,
		Template:       toTemplateModel(e.Template),
		IsActive:       e.IsActive,
	}
}

func toRuleModels(entities []*ReminderRuleEntity) []*model.ReminderRule {
	models := make([]*model.ReminderRule, len(entities))
	for i, e := range entities {
		models[i] = toRuleModel(e)
	}
	return models
}

func toMessageEntity(m *model.ReminderMessage) *ReminderMessageEntity {
	return &ReminderMessageEntity{
		Model:           pg.Model{ID: m.ID},
		OrgID:           m.OrgID,
		CustomerID:      m.CustomerID,
		VehicleID:       m.VehicleID,
		ServiceRecordID: m.ServiceRecordID,
		ReminderRuleID:  m.ReminderRuleID,
		TemplateID:      m.TemplateID,
		Direction:       string(m.Direction),
		Status:          string(m.Status),
		ScheduledAt:     m.ScheduledAt,
		SentAt:          m.SentAt,
		Body:            m.Body,
		FromPhone:       m.FromPhone,
		ToPhone:         m.ToPhone,
		ProviderSID:     m.ProviderSID,
		ErrorMessage:    m.ErrorMessage,
	}
}

func toMessageModel(e *ReminderMessageEntity) *model.ReminderMessage {
	return &model.ReminderMessage{
		ID:              e.ID,
		OrgID:           e.OrgID,
		CustomerID:      e.CustomerID,
		VehicleID:       e.VehicleID,
		ServiceRecordID: e.ServiceRecordID,
		ReminderRuleID:  e.ReminderRuleID,
		TemplateID:      e.TemplateID,
		Direction:       model.MessageDirection(e.Direction),
		Status:          model.MessageStatus(e.Status),
		ScheduledAt:     e.ScheduledAt,
		SentAt:          e.SentAt,
		Body:            e.Body,
		FromPhone:       e.FromPhone,
		ToPhone:         e.ToPhone,
		ProviderSID:     e.ProviderSID,
		ErrorMessage:    e.ErrorMessage,
		CreatedAt:       e.CreatedAt,
	}
}

func toMessageModels(entities []*ReminderMessageEntity) []*model.ReminderMessage {
	models := make([]*model.ReminderMessage, len(entities))
	for i, e := range entities {
		models[i] = toMessageModel(e)
	}
	return models
}
