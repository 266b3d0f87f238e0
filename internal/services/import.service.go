package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/internal/status"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/prom"
)

var (
	ErrEmptyCSV = errors.New("CSV file is empty or has no data rows")
)

const (
	maxImportErrorDetails = 10

	fallbackIntervalDays    = 90
	fallbackMileageInterval = 5000

	consentPerformedBySystem = "system"
	consentImportNote        = "Consent granted during CSV import"
)

type rowOutcome int

const (
	rowSuccess rowOutcome = iota
	rowDuplicate
	rowFailed
)

// ImportService turns uploaded CSV text into customers, vehicles and service records.
type ImportService struct {
	customers  CustomerRepository
	config     ReminderConfigRepository
	thresholds status.Thresholds
	now        func() time.Time
}

func NewImportService(customers CustomerRepository, config ReminderConfigRepository, thresholds status.Thresholds) *ImportService {
	return &ImportService{
		customers:  customers,
		config:     config,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Import processes every data row independently. Only an unreadable file or a failure
// to load the tenant's service types is returned as an error.
func (s *ImportService) Import(ctx context.Context, orgID, raw string, smsConsent bool) (*model.ImportResult, error) {
	lines := splitLines(raw)
	if len(lines) < 2 {
		return nil, ErrEmptyCSV
	}

	headers := normalizeHeaders(parseCSVLine(lines[0]))
	format := detectFormat(headers)

	types, err := s.config.ListServiceTypes(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load service types: %w", err)
	}

	result := &model.ImportResult{Format: format}
	var details []string
	for i, line := range lines[1:] {
		r := row{headers: headers, cells: parseCSVLine(line)}

		var (
			outcome rowOutcome
			reason  string
		)
		if format == model.ImportFormatShop {
			outcome, reason = s.processShopRow(ctx, orgID, r, types, smsConsent)
		} else {
			outcome, reason = s.processStandardRow(ctx, orgID, r, types, smsConsent)
		}

		switch outcome {
		case rowSuccess:
			result.Success++
		case rowDuplicate:
			result.Duplicates++
		default:
			result.Errors++
			details = append(details, fmt.Sprintf("Row %d: %s", i+1, reason))
		}
	}

	if result.Errors > 0 {
		result.Message = fmt.Sprintf("Imported %d customers with %d errors", result.Success, result.Errors)
		if len(details) > maxImportErrorDetails {
			details = details[:maxImportErrorDetails]
		}
		result.Details = details
	} else {
		result.Message = fmt.Sprintf("Successfully imported %d customers", result.Success)
	}

	prom.AddImportRows("success", result.Success)
	prom.AddImportRows("duplicate", result.Duplicates)
	prom.AddImportRows("error", result.Errors)
	logger.Info("csv import finished", "org_id", orgID, "format", format,
		"success", result.Success, "duplicates", result.Duplicates, "errors", result.Errors)

	return result, nil
}

func (s *ImportService) processShopRow(ctx context.Context, orgID string, r row, types []*model.ServiceType, smsConsent bool) (rowOutcome, string) {
	rawPhone := r.get("phone")
	if rawPhone == "" {
		return rowFailed, "Missing phone number"
	}
	phone := NormalizePhone(rawPhone)
	if !validPhone(phone) {
		return rowFailed, "Invalid phone number"
	}

	if dup, err := s.exists(ctx, orgID, phone); err != nil {
		return rowFailed, err.Error()
	} else if dup {
		return rowDuplicate, ""
	}

	first, last := "Unknown", ""
	if full := r.get("full name"); full != "" {
		first, last = parseFullName(full)
	}

	c := s.newCustomer(first, last, phone, r.get("email"), smsConsent)

	if info := parseYearMakeModel(r.get("year/make/model")); info != nil {
		mileage := parseMileage(r.get("current milleage", "current mileage"))
		v := &model.Vehicle{
			Year:                 info.year,
			Make:                 info.make,
			Model:                info.model,
			VIN:                  optional(r.get("vin code")),
			MileageAtLastService: mileage,
		}
		if mileage != nil {
			desc := r.get("repair description")
			serviceType := defaultServiceType
			if desc != "" {
				serviceType = inferServiceType(desc)
			}
			v.ServiceRecords = []*model.ServiceRecord{
				s.snapshot(types, status.CalendarDate(s.now()), *mileage, serviceType, optional(desc)),
			}
		}
		c.Vehicles = []*model.Vehicle{v}
	}

	return s.save(ctx, orgID, c, types)
}

func (s *ImportService) processStandardRow(ctx context.Context, orgID string, r row, types []*model.ServiceType, smsConsent bool) (rowOutcome, string) {
	first, last, rawPhone := r.get("firstname"), r.get("lastname"), r.get("phone")
	if first == "" || last == "" || rawPhone == "" {
		return rowFailed, "Missing required fields"
	}
	phone := NormalizePhone(rawPhone)
	if !validPhone(phone) {
		return rowFailed, "Invalid phone number"
	}

	if dup, err := s.exists(ctx, orgID, phone); err != nil {
		return rowFailed, err.Error()
	} else if dup {
		return rowDuplicate, ""
	}

	c := s.newCustomer(first, last, phone, r.get("email"), smsConsent)

	year, hasYear := parseLeadingInt(r.get("vehicleyear"))
	vMake, vModel := r.get("vehiclemake"), r.get("vehiclemodel")
	if hasYear && year > 0 && vMake != "" && vModel != "" {
		var mileage *int
		if m, ok := parseLeadingInt(r.get("lastservicemileage")); ok && m > 0 {
			mileage = &m
		}
		v := &model.Vehicle{
			Year:                 year,
			Make:                 vMake,
			Model:                vModel,
			LicensePlate:         optional(r.get("licenseplate")),
			MileageAtLastService: mileage,
		}
		if rawDate := r.get("lastservicedate"); rawDate != "" && mileage != nil {
			serviceDate, ok := parseServiceDate(rawDate)
			if !ok {
				return rowFailed, "Invalid last service date"
			}
			v.ServiceRecords = []*model.ServiceRecord{
				s.snapshot(types, serviceDate, *mileage, defaultServiceType, nil),
			}
		}
		c.Vehicles = []*model.Vehicle{v}
	}

	return s.save(ctx, orgID, c, types)
}

func (s *ImportService) exists(ctx context.Context, orgID, phone string) (bool, error) {
	_, err := s.customers.FindByPhone(ctx, orgID, phone)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrCustomerNotFound):
		return false, nil
	}
	return false, err
}

func (s *ImportService) newCustomer(first, last, phone, email string, smsConsent bool) *model.Customer {
	c := &model.Customer{
		FirstName:  first,
		LastName:   last,
		Phone:      phone,
		Email:      optional(email),
		Status:     model.CustomerStatusUpToDate,
		SMSConsent: smsConsent,
	}
	if smsConsent {
		now := s.now()
		c.SMSConsentDate = &now
	}
	return c
}

// snapshot builds a service record with its due values fixed at creation.
func (s *ImportService) snapshot(types []*model.ServiceType, serviceDate time.Time, mileage int, serviceType string, notes *string) *model.ServiceRecord {
	days, interval := fallbackIntervalDays, intPtr(fallbackMileageInterval)
	if st := findServiceType(types, serviceType); st != nil {
		days, interval = st.DefaultTimeIntervalDays, st.DefaultMileageInterval
	}
	return &model.ServiceRecord{
		ServiceDate:      serviceDate,
		MileageAtService: mileage,
		ServiceType:      serviceType,
		Notes:            notes,
		NextDueDate:      status.DeriveDueDate(serviceDate, days),
		NextDueMileage:   status.DeriveDueMileage(mileage, interval),
	}
}

// save writes the customer graph and its consent log as one unit.
func (s *ImportService) save(ctx context.Context, orgID string, c *model.Customer, types []*model.ServiceType) (rowOutcome, string) {
	c.Status = status.ForCustomer(c, s.now(), s.thresholds, leadDaysByType(types))

	err := s.customers.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err := s.customers.CreateGraph(ctx, orgID, c)
		if err != nil {
			return err
		}
		if !c.SMSConsent {
			return nil
		}
		return s.customers.AddConsentLog(ctx, orgID, &model.ConsentLog{
			CustomerID:  created.ID,
			Action:      model.ConsentOptIn,
			Source:      model.ConsentSourceCSVImport,
			PerformedBy: consentPerformedBySystem,
			Notes:       consentImportNote,
		})
	})
	switch {
	case err == nil:
		return rowSuccess, ""
	case errors.Is(err, repository.ErrDuplicate):
		return rowDuplicate, ""
	}
	logger.Warn("failed to save imported customer", "org_id", orgID, "phone", c.Phone, "error", err)
	return rowFailed, fmt.Sprintf("Failed to save customer (phone: %s): %v", c.Phone, err)
}

// findServiceType prefers an exact name and falls back to the variant-insensitive match.
func findServiceType(types []*model.ServiceType, name string) *model.ServiceType {
	for _, st := range types {
		if st.Name == name {
			return st
		}
	}
	for _, st := range types {
		if status.MatchesServiceType(st.Name, name) {
			return st
		}
	}
	return nil
}

func leadDaysByType(types []*model.ServiceType) map[string]int {
	m := make(map[string]int, len(types))
	for _, st := range types {
		m[st.Name] = st.ReminderLeadDays
	}
	return m
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intPtr(v int) *int {
	return &v
}
