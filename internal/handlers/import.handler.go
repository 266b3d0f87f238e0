package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/fasthttp/router"
	"github.com/nimasrn/service-reminders/internal/model"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/valyala/fasthttp"
)

type ImportService interface {
	Import(ctx context.Context, orgID, raw string, smsConsent bool) (*model.ImportResult, error)
}

type ImportHandler struct {
	svc      ImportService
	maxBytes int64
}

func RegisterImportRoutes(e *router.Group, h *ImportHandler) {
	e.POST("/import", h.ImportCustomers)
}

func NewImportHandler(svc ImportService, maxBytes int64) *ImportHandler {
	return &ImportHandler{svc: svc, maxBytes: maxBytes}
}

// ImportCustomers takes a multipart upload with a "file" part and an
// optional smsConsent=true field applied to every imported customer.
func (h *ImportHandler) ImportCustomers(ctx *xhttp.RequestCtx) {
	org, ok := orgID(ctx)
	if !ok {
		return
	}

	fh, err := ctx.FormFile("file")
	if errors.Is(err, fasthttp.ErrMissingFile) || fh == nil {
		writeError(ctx, xhttp.StatusBadRequest, "No file uploaded")
		return
	}
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		writeError(ctx, xhttp.StatusRequestEntityTooLarge, "file too large")
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	smsConsent := string(ctx.FormValue("smsConsent")) == "true"

	res, err := h.svc.Import(ctx, org, string(raw), smsConsent)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}
