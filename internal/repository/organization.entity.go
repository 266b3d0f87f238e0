package repository

import (
	"time"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/pg"
)

type OrganizationEntity struct {
	ID                 string     `gorm:"primaryKey;column:id"`
	Name               string     `gorm:"column:name;not null"`
	Slug               string     `gorm:"column:slug;not null"`
	Phone              string     `gorm:"column:phone"`
	Timezone           string     `gorm:"column:timezone"`
	ReminderEnabled    bool       `gorm:"column:reminder_enabled;not null"`
	ReminderQuietStart int        `gorm:"column:reminder_quiet_start;not null"`
	ReminderQuietEnd   int        `gorm:"column:reminder_quiet_end;not null"`
	SubscriptionStatus string     `gorm:"column:subscription_status;not null"`
	SubscriptionTier   string     `gorm:"column:subscription_tier;not null"`
	TrialEndsAt        *time.Time `gorm:"column:trial_ends_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrganizationEntity) TableName() string {
	return "organizations"
}

type TwilioConfigEntity struct {
	pg.Model
	OrgID       string `gorm:"column:org_id;not null;uniqueIndex"`
	AccountSID  string `gorm:"column:account_sid;not null"`
	AuthToken   string `gorm:"column:auth_token;not null"`
	PhoneNumber string `gorm:"column:phone_number;not null"`
	IsActive    bool   `gorm:"column:is_active;not null"`
}

func (TwilioConfigEntity) TableName() string {
	return "twilio_configs"
}

func toOrganizationEntity(m *model.Organization) *OrganizationEntity {
	if m == nil {
		return nil
	}
	return &OrganizationEntity{
		ID:                 m.ID,
		Name:               m.Name,
		Slug:               m.Slug,
		Phone:              m.Phone,
		Timezone:           m.Timezone,
		ReminderEnabled:    m.ReminderEnabled,
		ReminderQuietStart: m.ReminderQuietStart,
		ReminderQuietEnd:   m.ReminderQuietEnd,
		SubscriptionStatus: m.SubscriptionStatus,
		SubscriptionTier:   m.SubscriptionTier,
		TrialEndsAt:        m.TrialEndsAt,
		CreatedAt:          m.CreatedAt,
	}
}

func toOrganizationModel(e *OrganizationEntity) *model.Organization {
	if e == nil {
		return nil
	}
	return &model.Organization{
		ID:                 e.ID,
		Name:               e.Name,
		Slug:               e.Slug,
		Phone:              e.Phone,
		Timezone:           e.Timezone,
		ReminderEnabled:    e.ReminderEnabled,
		ReminderQuietStart: e.ReminderQuietStart,
		ReminderQuietEnd:   e.ReminderQuietEnd,
		SubscriptionStatus: e.SubscriptionStatus,
		SubscriptionTier:   e.SubscriptionTier,
		TrialEndsAt:        e.TrialEndsAt,
		CreatedAt:          e.CreatedAt,
	}
}

func toTwilioConfigModel(e *TwilioConfigEntity) *model.TwilioConfig {
	if e == nil {
		return nil
	}
	return &model.TwilioConfig{
		ID:          e.ID,
		OrgID:       e.OrgID,
		AccountSID:  e.AccountSID,
		AuthToken:   e.AuthToken,
		PhoneNumber: e.PhoneNumber,
		IsActive:    e.IsActive,
	}
}
