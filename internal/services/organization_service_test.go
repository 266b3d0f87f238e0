package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrganizationService(e *testEnv) *OrganizationService {
	s := NewOrganizationService(e.orgs, e.config, e.seeder)
	s.now = fixedClock
	return s
}

func TestOrganizationService_Ensure(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrganizationService(env)
	ctx := context.Background()

	org, err := svc.Ensure(ctx, "org_abc", "Joe's Garage & Tires")
	require.NoError(t, err)
	assert.Equal(t, "joe-s-garage-tires", org.Slug)
	assert.Equal(t, "trial", org.SubscriptionStatus)
	assert.Equal(t, "starter", org.SubscriptionTier)
	assert.True(t, org.ReminderEnabled)
	assert.Equal(t, 21, org.ReminderQuietStart)
	assert.Equal(t, 8, org.ReminderQuietEnd)
	require.NotNil(t, org.TrialEndsAt)
	assert.True(t, org.TrialEndsAt.Equal(fixedNow.AddDate(0, 0, 14)))

	n, err := env.config.CountRules(ctx, "org_abc")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	again, err := svc.Ensure(ctx, "org_abc", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Joe's Garage & Tires", again.Name)

	noName, err := svc.Ensure(ctx, "org_xyz", "")
	require.NoError(t, err)
	assert.Equal(t, "org_xyz", noName.Name)
	assert.Equal(t, "org-xyz", noName.Slug)
}

func TestOrganizationService_ReminderSettingsSeedsLazily(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrganizationService(env)
	ctx := context.Background()

	_, err := env.orgs.Create(ctx, &model.Organization{ID: "legacy", Name: "Legacy", Slug: "legacy", ReminderEnabled: true, ReminderQuietStart: 22, ReminderQuietEnd: 7})
	require.NoError(t, err)

	view, err := svc.ReminderSettings(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, view.Settings)
	assert.Equal(t, 22, view.Settings.QuietStart)
	assert.Len(t, view.ServiceTypes, 4)

	missing, err := svc.ReminderSettings(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing.Settings)
}

func TestOrganizationService_UpdateReminderSettings(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrganizationService(env)
	ctx := context.Background()

	_, err := svc.Ensure(ctx, "org_1", "Shop")
	require.NoError(t, err)
	view, err := svc.ReminderSettings(ctx, "org_1")
	require.NoError(t, err)
	var inspection *model.ServiceType
	for _, st := range view.ServiceTypes {
		if st.Name == "state_inspection" {
			inspection = st
		}
	}
	require.NotNil(t, inspection)

	err = svc.UpdateReminderSettings(ctx, "org_1", model.ReminderSettingsUpdate{
		Settings: model.ReminderSettings{Enabled: false, QuietStart: 20, QuietEnd: 9},
		ServiceTypes: []model.ServiceTypeInput{
			{ID: &inspection.ID, ReminderLeadDays: 45},
			{Name: "coolant_flush", DisplayName: "Coolant Flush", DefaultTimeIntervalDays: 730, ReminderLeadDays: 21},
		},
	})
	require.NoError(t, err)

	view, err = svc.ReminderSettings(ctx, "org_1")
	require.NoError(t, err)
	assert.False(t, view.Settings.Enabled)
	assert.Equal(t, 20, view.Settings.QuietStart)
	require.Len(t, view.ServiceTypes, 5)
	for _, st := range view.ServiceTypes {
		switch st.Name {
		case "state_inspection":
			assert.Equal(t, 45, st.ReminderLeadDays)
		case "coolant_flush":
			assert.True(t, st.IsCustom)
			assert.True(t, st.IsActive)
		}
	}

	t.Run("invalid quiet hours", func(t *testing.T) {
		err := svc.UpdateReminderSettings(ctx, "org_1", model.ReminderSettingsUpdate{
			Settings: model.ReminderSettings{QuietStart: 24},
		})
		assert.Error(t, err)
	})

	t.Run("unknown organization", func(t *testing.T) {
		err := svc.UpdateReminderSettings(ctx, "nobody", model.ReminderSettingsUpdate{})
		assert.ErrorIs(t, err, ErrOrganizationNotFound)
	})

	t.Run("unknown service type id", func(t *testing.T) {
		id := uuid.New()
		err := svc.UpdateReminderSettings(ctx, "org_1", model.ReminderSettingsUpdate{
			Settings:     model.ReminderSettings{Enabled: true, QuietStart: 21, QuietEnd: 8},
			ServiceTypes: []model.ServiceTypeInput{{ID: &id, ReminderLeadDays: 3}},
		})
		assert.Error(t, err)

		org, err := svc.Get(ctx, "org_1")
		require.NoError(t, err)
		assert.False(t, org.ReminderEnabled, "rolled back")
	})
}
