package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedConfig(t *testing.T, repo *ReminderConfigRepository, orgID string) ([]*model.ServiceType, []*model.ReminderTemplate) {
	t.Helper()
	ctx := context.Background()

	types, err := repo.CreateServiceTypes(ctx, orgID, []*model.ServiceType{
		{Name: "oil_change_conventional", DisplayName: "Oil Change (Conventional)", DefaultMileageInterval: intPtr(5000), DefaultTimeIntervalDays: 90, ReminderLeadDays: 14, IsActive: true},
		{Name: "state_inspection", DisplayName: "State Inspection", DefaultTimeIntervalDays: 365, ReminderLeadDays: 30, IsActive: true},
	})
	require.NoError(t, err)

	templates, err := repo.CreateTemplates(ctx, orgID, []*model.ReminderTemplate{
		{Name: "First Reminder", Body: "Hi {{firstName}}", IsDefault: true},
		{Name: "Due Date", Body: "Due {{dueDate}}", IsDefault: true},
	})
	require.NoError(t, err)
	return types, templates
}

func TestReminderConfigRepository_Counts(t *testing.T) {
	repo := NewReminderConfigRepository(NewTestDB(t))
	ctx := context.Background()

	n, err := repo.CountServiceTypes(ctx, "org_1")
	require.NoError(t, err)
	assert.Zero(t, n)

	seedConfig(t, repo, "org_1")

	n, err = repo.CountServiceTypes(ctx, "org_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CountTemplates(ctx, "org_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CountServiceTypes(ctx, "org_2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReminderConfigRepository_DuplicateServiceTypeName(t *testing.T) {
	repo := NewReminderConfigRepository(NewTestDB(t))
	seedConfig(t, repo, "org_1")

	_, err := repo.CreateServiceTypes(context.Background(), "org_1", []*model.ServiceType{
		{Name: "state_inspection", DisplayName: "Again", DefaultTimeIntervalDays: 365},
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestReminderConfigRepository_ListActiveRules(t *testing.T) {
	repo := NewReminderConfigRepository(NewTestDB(t))
	ctx := context.Background()
	types, templates := seedConfig(t, repo, "org_1")

	rules, err := repo.CreateRules(ctx, "org_1", []*model.ReminderRule{
		{ServiceTypeID: types[0].ID, SequenceNumber: 2, OffsetDays: 0, TemplateID: &templates[1].ID, IsActive: true},
		{ServiceTypeID: types[0].ID, SequenceNumber: 1, OffsetDays: -14, TemplateID: &templates[0].ID, IsActive: true},
		{ServiceTypeID: types[1].ID, SequenceNumber: 1, OffsetDays: -14, IsActive: true},
	})
	require.NoError(t, err)
	require.NoError(t, repo.SetRuleActive(ctx, "org_1", rules[2].ID, false))

	active, err := repo.ListActiveRules(ctx, "org_1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 1, active[0].SequenceNumber)
	require.NotNil(t, active[0].ServiceType)
	assert.Equal(t, "oil_change_conventional", active[0].ServiceType.Name)
	require.NotNil(t, active[0].Template)
	assert.Equal(t, "First Reminder", active[0].Template.Name)

	all, err := repo.ListRules(ctx, "org_1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	other, err := repo.ListActiveRules(ctx, "org_2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReminderConfigRepository_UpdateLeadDays(t *testing.T) {
	repo := NewReminderConfigRepository(NewTestDB(t))
	ctx := context.Background()
	types, _ := seedConfig(t, repo, "org_1")

	require.NoError(t, repo.UpdateLeadDays(ctx, "org_1", types[1].ID, 45))
	assert.ErrorIs(t, repo.UpdateLeadDays(ctx, "org_2", types[1].ID, 45), ErrNotFound)

	list, err := repo.ListServiceTypes(ctx, "org_1")
	require.NoError(t, err)
	for _, st := range list {
		if st.ID == types[1].ID {
			assert.Equal(t, 45, st.ReminderLeadDays)
			assert.Nil(t, st.DefaultMileageInterval)
		}
	}
}
