package handlers

import (
	"context"

	"github.com/fasthttp/router"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
)

// Pinger is implemented by the storage dependencies the API needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps map[string]Pinger
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	checks := make(map[string]string, len(h.deps))
	status := xhttp.StatusOK
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = xhttp.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(ctx, status, map[string]any{"status": xhttp.StatusText(status), "checks": checks})
}
