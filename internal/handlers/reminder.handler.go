package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/service-reminders/internal/model"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
)

type ReminderEvaluator interface {
	Evaluate(ctx context.Context, org *model.Organization) (*model.EvaluationResult, error)
}

type OrganizationGetter interface {
	Get(ctx context.Context, orgID string) (*model.Organization, error)
}

type ReminderHandler struct {
	orgs      OrganizationGetter
	evaluator ReminderEvaluator
}

func RegisterReminderRoutes(e *router.Group, h *ReminderHandler) {
	e.POST("/reminders/evaluate", h.Evaluate)
}

func NewReminderHandler(orgs OrganizationGetter, evaluator ReminderEvaluator) *ReminderHandler {
	return &ReminderHandler{orgs: orgs, evaluator: evaluator}
}

type evaluateResponse struct {
	Queued int      `json:"queued"`
	Errors []string `json:"errors"`
}

// Evaluate runs the reminder engine once for the caller's organization.
func (h *ReminderHandler) Evaluate(ctx *xhttp.RequestCtx) {
	id, ok := orgID(ctx)
	if !ok {
		return
	}

	org, err := h.orgs.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	res, err := h.evaluator.Evaluate(ctx, org)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	writeJSON(ctx, xhttp.StatusOK, evaluateResponse{Queued: res.Queued, Errors: errs})
}
