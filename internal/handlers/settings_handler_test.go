package handlers

import (
	"encoding/json"
	"testing"

	"github.com/nimasrn/service-reminders/internal/model"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettingsHandler_GetReminderSettings(t *testing.T) {
	svc := new(MockOrganizationService)
	h := NewSettingsHandler(svc)

	view := &model.ReminderSettingsView{
		Settings:     &model.ReminderSettings{Enabled: true, QuietStart: 21, QuietEnd: 8},
		ServiceTypes: []*model.ServiceType{{Name: "oil_change", DisplayName: "Oil Change", ReminderLeadDays: 14}},
	}
	svc.On("ReminderSettings", mock.Anything, testOrg).Return(view, nil)

	ctx := setupTestContext("GET", "/settings/reminders", nil)
	h.GetReminderSettings(ctx)

	assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
	assert.JSONEq(t, `{"enabled":true,"quietStart":21,"quietEnd":8}`, string(got["settings"]))
	assert.Contains(t, string(got["serviceTypes"]), "oil_change")
}

func TestSettingsHandler_UpdateReminderSettings(t *testing.T) {
	t.Run("saves", func(t *testing.T) {
		svc := new(MockOrganizationService)
		h := NewSettingsHandler(svc)

		svc.On("UpdateReminderSettings", mock.Anything, testOrg, mock.MatchedBy(func(p model.ReminderSettingsUpdate) bool {
			return !p.Settings.Enabled && p.Settings.QuietStart == 22 && len(p.ServiceTypes) == 1 && p.ServiceTypes[0].ReminderLeadDays == 7
		})).Return(nil)

		body := []byte(`{"settings":{"enabled":false,"quietStart":22,"quietEnd":7},"serviceTypes":[{"name":"detailing","displayName":"Detailing","defaultTimeIntervalDays":90,"reminderLeadDays":7}]}`)
		ctx := setupTestContext("POST", "/settings/reminders", body)
		h.UpdateReminderSettings(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.JSONEq(t, `{"success":true}`, string(ctx.Response.Body()))
		svc.AssertExpectations(t)
	})

	t.Run("invalid quiet hours", func(t *testing.T) {
		svc := new(MockOrganizationService)
		h := NewSettingsHandler(svc)
		svc.On("UpdateReminderSettings", mock.Anything, testOrg, mock.Anything).
			Return(model.ReminderSettings{QuietStart: 25}.Validate())

		ctx := setupTestContext("POST", "/settings/reminders", []byte(`{"settings":{"quietStart":25}}`))
		h.UpdateReminderSettings(ctx)

		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}
