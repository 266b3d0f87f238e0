package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/service-reminders/internal/model"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
)

type SettingsService interface {
	ReminderSettings(ctx context.Context, orgID string) (*model.ReminderSettingsView, error)
	UpdateReminderSettings(ctx context.Context, orgID string, p model.ReminderSettingsUpdate) error
}

type SettingsHandler struct {
	svc SettingsService
}

func RegisterSettingsRoutes(e *router.Group, h *SettingsHandler) {
	e.GET("/settings/reminders", h.GetReminderSettings)
	e.POST("/settings/reminders", h.UpdateReminderSettings)
}

func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) GetReminderSettings(ctx *xhttp.RequestCtx) {
	org, ok := orgID(ctx)
	if !ok {
		return
	}

	view, err := h.svc.ReminderSettings(ctx, org)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, view)
}

func (h *SettingsHandler) UpdateReminderSettings(ctx *xhttp.RequestCtx) {
	org, ok := orgID(ctx)
	if !ok {
		return
	}

	var req model.ReminderSettingsUpdate
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.UpdateReminderSettings(ctx, org, req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]bool{"success": true})
}
