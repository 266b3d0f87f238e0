package handlers

import (
	"errors"
	"testing"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/services"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReminderHandler_Evaluate(t *testing.T) {
	org := &model.Organization{ID: testOrg, ReminderEnabled: true}

	t.Run("returns queued count", func(t *testing.T) {
		orgs := new(MockOrganizationService)
		eval := new(MockEvaluator)
		h := NewReminderHandler(orgs, eval)

		orgs.On("Get", mock.Anything, testOrg).Return(org, nil)
		eval.On("Evaluate", mock.Anything, org).Return(&model.EvaluationResult{Queued: 3}, nil)

		ctx := setupTestContext("POST", "/reminders/evaluate", nil)
		h.Evaluate(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.JSONEq(t, `{"queued":3,"errors":[]}`, string(ctx.Response.Body()))
	})

	t.Run("skipped run reports its reason", func(t *testing.T) {
		orgs := new(MockOrganizationService)
		eval := new(MockEvaluator)
		h := NewReminderHandler(orgs, eval)

		orgs.On("Get", mock.Anything, testOrg).Return(org, nil)
		eval.On("Evaluate", mock.Anything, org).
			Return(&model.EvaluationResult{Errors: []string{"Reminders are disabled"}, Skipped: true}, nil)

		ctx := setupTestContext("POST", "/reminders/evaluate", nil)
		h.Evaluate(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.JSONEq(t, `{"queued":0,"errors":["Reminders are disabled"]}`, string(ctx.Response.Body()))
	})

	t.Run("unknown organization", func(t *testing.T) {
		orgs := new(MockOrganizationService)
		eval := new(MockEvaluator)
		h := NewReminderHandler(orgs, eval)
		orgs.On("Get", mock.Anything, testOrg).Return(nil, services.ErrOrganizationNotFound)

		ctx := setupTestContext("POST", "/reminders/evaluate", nil)
		h.Evaluate(ctx)

		assert.Equal(t, xhttp.StatusNotFound, ctx.Response.StatusCode())
		eval.AssertNotCalled(t, "Evaluate")
	})

	t.Run("engine failure", func(t *testing.T) {
		orgs := new(MockOrganizationService)
		eval := new(MockEvaluator)
		h := NewReminderHandler(orgs, eval)
		orgs.On("Get", mock.Anything, testOrg).Return(org, nil)
		eval.On("Evaluate", mock.Anything, org).Return(nil, errors.New("db down"))

		ctx := setupTestContext("POST", "/reminders/evaluate", nil)
		h.Evaluate(ctx)

		assert.Equal(t, xhttp.StatusInternalServerError, ctx.Response.StatusCode())
	})
}
