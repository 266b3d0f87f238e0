package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/internal/status"
	"github.com/nimasrn/service-reminders/pkg/logger"
)

var (
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrDuplicateCustomer  = errors.New("a customer with this phone number already exists")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrUnknownServiceType = errors.New("unknown service type")
)

type CustomerService struct {
	customers  CustomerRepository
	config     ReminderConfigRepository
	thresholds status.Thresholds
	now        func() time.Time
}

func NewCustomerService(customers CustomerRepository, config ReminderConfigRepository, thresholds status.Thresholds) *CustomerService {
	return &CustomerService{
		customers:  customers,
		config:     config,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Create stores a manually entered customer with an optional vehicle.
func (s *CustomerService) Create(ctx context.Context, orgID string, p model.CustomerCreateRequest) (*model.Customer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	phone := NormalizePhone(p.Phone)
	if !validPhone(phone) {
		return nil, ErrInvalidPhone
	}

	c := &model.Customer{
		FirstName:  strings.TrimSpace(p.FirstName),
		LastName:   strings.TrimSpace(p.LastName),
		Phone:      phone,
		Email:      p.Email,
		Status:     model.CustomerStatusUpToDate,
		SMSConsent: p.SMSConsent,
	}
	if p.SMSConsent {
		now := s.now()
		c.SMSConsentDate = &now
	}
	if p.Vehicle != nil {
		c.Vehicles = []*model.Vehicle{{
			Year:         p.Vehicle.Year,
			Make:         p.Vehicle.Make,
			Model:        p.Vehicle.Model,
			VIN:          p.Vehicle.VIN,
			LicensePlate: p.Vehicle.LicensePlate,
		}}
	}

	var created *model.Customer
	err := s.customers.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.customers.CreateGraph(ctx, orgID, c)
		if err != nil {
			return err
		}
		if !p.SMSConsent {
			return nil
		}
		return s.customers.AddConsentLog(ctx, orgID, &model.ConsentLog{
			CustomerID:  created.ID,
			Action:      model.ConsentOptIn,
			Source:      model.ConsentSourceManual,
			PerformedBy: consentPerformedBySystem,
		})
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateCustomer
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AddServiceRecord snapshots the due values from the tenant's service type and
// recomputes the customer status.
func (s *CustomerService) AddServiceRecord(ctx context.Context, orgID string, customerID uuid.UUID, p model.ServiceRecordCreateRequest) (*model.ServiceRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	types, err := s.config.ListServiceTypes(ctx, orgID)
	if err != nil {
		return nil, err
	}
	st := findServiceType(types, p.ServiceType)
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServiceType, p.ServiceType)
	}

	serviceDate := status.CalendarDate(p.ServiceDate)
	rec := &model.ServiceRecord{
		VehicleID:        p.VehicleID,
		ServiceDate:      serviceDate,
		MileageAtService: p.MileageAtService,
		ServiceType:      p.ServiceType,
		Notes:            p.Notes,
		NextDueDate:      status.DeriveDueDate(serviceDate, st.DefaultTimeIntervalDays),
		NextDueMileage:   status.DeriveDueMileage(p.MileageAtService, st.DefaultMileageInterval),
	}

	var created *model.ServiceRecord
	err = s.customers.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.customers.GetVehicle(ctx, orgID, customerID, p.VehicleID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrVehicleNotFound
			}
			return err
		}
		created, err = s.customers.AddServiceRecord(ctx, orgID, rec)
		if err != nil {
			return err
		}
		_, err = s.RecomputeStatus(ctx, orgID, customerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SetConsent records an opt-in or opt-out and appends the audit entry.
func (s *CustomerService) SetConsent(ctx context.Context, orgID string, customerID uuid.UUID, consent bool, performedBy string) error {
	if performedBy == "" {
		performedBy = consentPerformedBySystem
	}
	action := model.ConsentOptOut
	var at *time.Time
	if consent {
		action = model.ConsentOptIn
		now := s.now()
		at = &now
	}

	err := s.customers.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.customers.UpdateConsent(ctx, orgID, customerID, consent, at); err != nil {
			return err
		}
		return s.customers.AddConsentLog(ctx, orgID, &model.ConsentLog{
			CustomerID:  customerID,
			Action:      action,
			Source:      model.ConsentSourceManual,
			PerformedBy: performedBy,
		})
	})
	if errors.Is(err, repository.ErrCustomerNotFound) {
		return ErrCustomerNotFound
	}
	return err
}

// RecomputeStatus re-derives the stored status from the customer's latest records.
// Mutations that change a customer's records call it before committing.
func (s *CustomerService) RecomputeStatus(ctx context.Context, orgID string, customerID uuid.UUID) (model.CustomerStatus, error) {
	types, err := s.config.ListServiceTypes(ctx, orgID)
	if err != nil {
		return "", err
	}
	c, err := s.customers.Get(ctx, orgID, customerID)
	if errors.Is(err, repository.ErrCustomerNotFound) {
		return "", ErrCustomerNotFound
	}
	if err != nil {
		return "", err
	}
	st := status.ForCustomer(c, s.now(), s.thresholds, leadDaysByType(types))
	if st == c.Status {
		return st, nil
	}
	if err := s.customers.UpdateStatus(ctx, orgID, customerID, st); err != nil {
		return "", err
	}
	return st, nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// List returns customers with their status derived relative to now, most urgent first.
// Filtering and paging apply to the derived status, so a stale stored value never
// hides or mislabels a customer.
func (s *CustomerService) List(ctx context.Context, orgID string, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("unknown status %q", f.Status)
	}
	types, err := s.config.ListServiceTypes(ctx, orgID)
	if err != nil {
		return nil, 0, err
	}
	leadDays := leadDaysByType(types)
	now := s.now()

	var matched []*model.Customer
	err = s.eachCustomer(ctx, orgID, func(c *model.Customer) error {
		derived := status.ForCustomer(c, now, s.thresholds, leadDays)
		if derived != c.Status {
			logger.Debug("customer status drifted", "org_id", orgID, "customer_id", c.ID, "stored", c.Status, "derived", derived)
			c.Status = derived
		}
		if f.Status == "" || c.Status == f.Status {
			matched = append(matched, c)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return status.Urgency(matched[i].Status) < status.Urgency(matched[j].Status)
	})

	total := int64(len(matched))
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*model.Customer{}, total, nil
	}
	return matched[offset:min(offset+limit, len(matched))], total, nil
}

const refreshPageSize = 500

// RefreshStatuses persists the derived status of every customer whose stored value drifted.
func (s *CustomerService) RefreshStatuses(ctx context.Context, orgID string) (int, error) {
	types, err := s.config.ListServiceTypes(ctx, orgID)
	if err != nil {
		return 0, err
	}
	leadDays := leadDaysByType(types)
	now := s.now()

	updated := 0
	err = s.eachCustomer(ctx, orgID, func(c *model.Customer) error {
		derived := status.ForCustomer(c, now, s.thresholds, leadDays)
		if derived == c.Status {
			return nil
		}
		if err := s.customers.UpdateStatus(ctx, orgID, c.ID, derived); err != nil {
			return err
		}
		updated++
		return nil
	})
	return updated, err
}

// eachCustomer walks the tenant's customers page by page in name order.
func (s *CustomerService) eachCustomer(ctx context.Context, orgID string, fn func(*model.Customer) error) error {
	for offset := 0; ; offset += refreshPageSize {
		page, _, err := s.customers.List(ctx, orgID, model.CustomerFilter{Limit: refreshPageSize, Offset: offset})
		if err != nil {
			return err
		}
		for _, c := range page {
			if err := fn(c); err != nil {
				return err
			}
		}
		if len(page) < refreshPageSize {
			return nil
		}
	}
}
