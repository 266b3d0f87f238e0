package model

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant. ID is the opaque key supplied by the identity provider.
type Organization struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Slug               string     `json:"slug"`
	Phone              string     `json:"phone,omitempty"`
	Timezone           string     `json:"timezone,omitempty"`
	ReminderEnabled    bool       `json:"reminder_enabled"`
	ReminderQuietStart int        `json:"reminder_quiet_start"`
	ReminderQuietEnd   int        `json:"reminder_quiet_end"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionTier   string     `json:"subscription_tier"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Location resolves the organization's timezone, falling back to the server zone.
func (o Organization) Location() *time.Location {
	if o.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// TwilioConfig holds the transport credentials of one organization.
type TwilioConfig struct {
	ID          uuid.UUID `json:"id"`
	OrgID       string    `json:"org_id"`
	AccountSID  string    `json:"account_sid"`
	AuthToken   string    `json:"-"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
}

// ReminderSettings is the editable part of an organization's reminder setup.
type ReminderSettings struct {
	Enabled    bool `json:"enabled"`
	QuietStart int  `json:"quietStart"`
	QuietEnd   int  `json:"quietEnd"`
}

func (s ReminderSettings) Validate() error {
	if s.QuietStart < 0 || s.QuietStart > 23 {
		return invalid("quietStart must be between 0 and 23")
	}
	if s.QuietEnd < 0 || s.QuietEnd > 23 {
		return invalid("quietEnd must be between 0 and 23")
	}
	return nil
}
