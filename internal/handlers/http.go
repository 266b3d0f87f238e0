package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/internal/services"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/nimasrn/service-reminders/pkg/logger"
)

// HeaderOrgID carries the tenant resolved by the identity layer in front of the API.
const HeaderOrgID = "X-Org-Id"

var errMissingTenant = errors.New("missing " + HeaderOrgID + " header")

func orgID(ctx *xhttp.RequestCtx) (string, bool) {
	id := string(ctx.Request.Header.Peek(HeaderOrgID))
	if id == "" {
		writeError(ctx, xhttp.StatusUnauthorized, errMissingTenant.Error())
		return "", false
	}
	return id, true
}

func pathUUID(ctx *xhttp.RequestCtx, name string) (uuid.UUID, bool) {
	raw, _ := ctx.UserValue(name).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps service and repository errors onto status codes.
// Anything unexpected is logged and hidden behind a 500.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, services.ErrInvalidPhone),
		errors.Is(err, services.ErrUnknownServiceType),
		errors.Is(err, services.ErrEmptyCSV):
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateCustomer):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	case errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrVehicleNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, "internal server error")
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
