package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
)

type CustomerService interface {
	Create(ctx context.Context, orgID string, p model.CustomerCreateRequest) (*model.Customer, error)
	AddServiceRecord(ctx context.Context, orgID string, customerID uuid.UUID, p model.ServiceRecordCreateRequest) (*model.ServiceRecord, error)
	SetConsent(ctx context.Context, orgID string, customerID uuid.UUID, consent bool, performedBy string) error
	List(ctx context.Context, orgID string, f model.CustomerFilter) ([]*model.Customer, int64, error)
}

type CustomerHandler struct {
	svc CustomerService
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler) {
	e.GET("/customers", h.ListCustomers)
	e.POST("/customers", h.CreateCustomer)
	e.POST("/customers/{id}/service-records", h.AddServiceRecord)
	e.POST("/customers/{id}/consent", h.SetConsent)
}

func NewCustomerHandler(svc CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

type listCustomersResponse struct {
	Items []*model.Customer `json:"items"`
	Total int64             `json:"total"`
}

type serviceRecordRequest struct {
	VehicleID        uuid.UUID `json:"vehicleId"`
	ServiceDate      string    `json:"serviceDate"`
	MileageAtService int       `json:"mileageAtService"`
	ServiceType      string    `json:"serviceType"`
	Notes            *string   `json:"notes,omitempty"`
}

type consentRequest struct {
	Consent     bool   `json:"consent"`
	PerformedBy string `json:"performedBy"`
}

// ListCustomers returns customers most urgent first; ?status= filters by tier.
func (h *CustomerHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	org, ok := orgID(ctx)
	if !ok {
		return
	}

	var f model.CustomerFilter
	if v := query(ctx, "status"); v != "" {
		s := model.CustomerStatus(v)
		if !s.Valid() {
			writeError(ctx, xhttp.StatusBadRequest, "invalid status: "+v)
			return
		}
		f.Status = s
	}
	if v := query(ctx, "limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}

	items, total, err := h.svc.List(ctx, org, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.Customer{}
	}
	writeJSON(ctx, xhttp.StatusOK, listCustomersResponse{Items: items, Total: total})
}

func (h *CustomerHandler) CreateCustomer(ctx *xhttp.RequestCtx) {
	org, ok := orgID(ctx)
	if !ok {
		return
	}

	var req model.CustomerCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	c, err := h.svc.Create(ctx, org, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, c)
}

func (h *CustomerHandler) AddServiceRecord(ctx *xhttp.RequestCtx) {
	org, ok := orgID(ctx)
	if !ok {
		return
	}
	customerID, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req serviceRecordRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	date, err := parseTime(req.ServiceDate)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid serviceDate")
		return
	}

	rec, err := h.svc.AddServiceRecord(ctx, org, customerID, model.ServiceRecordCreateRequest{
		VehicleID:        req.VehicleID,
		ServiceDate:      date,
		MileageAtService: req.MileageAtService,
		ServiceType:      req.ServiceType,
		Notes:            req.Notes,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, rec)
}

func (h *CustomerHandler) SetConsent(ctx *xhttp.RequestCtx) {
	org, ok := orgID(ctx)
	if !ok {
		return
	}
	customerID, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req consentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.PerformedBy == "" {
		req.PerformedBy = "user"
	}

	if err := h.svc.SetConsent(ctx, org, customerID, req.Consent, req.PerformedBy); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]bool{"smsConsent": req.Consent})
}
