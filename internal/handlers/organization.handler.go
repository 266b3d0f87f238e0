package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/service-reminders/internal/model"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
)

type OrganizationService interface {
	Ensure(ctx context.Context, orgID, name string) (*model.Organization, error)
}

type OrganizationHandler struct {
	svc OrganizationService
}

func RegisterOrganizationRoutes(e *router.Group, h *OrganizationHandler) {
	e.POST("/organizations", h.EnsureOrganization)
}

func NewOrganizationHandler(svc OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

type ensureOrganizationRequest struct {
	Name string `json:"name"`
}

// EnsureOrganization provisions the caller's tenant on first sign-in and
// returns the existing one afterwards.
func (h *OrganizationHandler) EnsureOrganization(ctx *xhttp.RequestCtx) {
	id, ok := orgID(ctx)
	if !ok {
		return
	}

	var req ensureOrganizationRequest
	if len(ctx.PostBody()) > 0 {
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Organization " + id
	}

	org, err := h.svc.Ensure(ctx, id, name)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, org)
}
