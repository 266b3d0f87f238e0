package handlers

import (
	"errors"
	"testing"

	"github.com/nimasrn/service-reminders/internal/model"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestOrganizationHandler_EnsureOrganization(t *testing.T) {
	t.Run("uses the given name", func(t *testing.T) {
		svc := new(MockOrganizationService)
		h := NewOrganizationHandler(svc)
		svc.On("Ensure", mock.Anything, testOrg, "Main Street Auto").
			Return(&model.Organization{ID: testOrg, Name: "Main Street Auto", Slug: "main-street-auto"}, nil)

		ctx := setupTestContext("POST", "/organizations", []byte(`{"name":"  Main Street Auto "}`))
		h.EnsureOrganization(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), "main-street-auto")
		svc.AssertExpectations(t)
	})

	t.Run("empty body falls back to a generated name", func(t *testing.T) {
		svc := new(MockOrganizationService)
		h := NewOrganizationHandler(svc)
		svc.On("Ensure", mock.Anything, testOrg, "Organization "+testOrg).Return(&model.Organization{ID: testOrg}, nil)

		ctx := setupTestContext("POST", "/organizations", nil)
		h.EnsureOrganization(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc := new(MockOrganizationService)
		h := NewOrganizationHandler(svc)
		svc.On("Ensure", mock.Anything, testOrg, mock.Anything).Return(nil, errors.New("tx aborted"))

		ctx := setupTestContext("POST", "/organizations", []byte(`{"name":"x"}`))
		h.EnsureOrganization(ctx)

		assert.Equal(t, xhttp.StatusInternalServerError, ctx.Response.StatusCode())
	})
}
