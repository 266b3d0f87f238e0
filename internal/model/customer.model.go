package model

import (
	"time"

	"github.com/google/uuid"
)

// CustomerStatus is the due tier of a customer's next service.
type CustomerStatus string

const (
	CustomerStatusOverdue  CustomerStatus = "overdue"
	CustomerStatusDueNow   CustomerStatus = "due_now"
	CustomerStatusDueSoon  CustomerStatus = "due_soon"
	CustomerStatusUpToDate CustomerStatus = "up_to_date"
)

func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerStatusOverdue, CustomerStatusDueNow, CustomerStatusDueSoon, CustomerStatusUpToDate:
		return true
	}
	return false
}

type Customer struct {
	ID             uuid.UUID      `json:"id"`
	OrgID          string         `json:"org_id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Phone          string         `json:"phone"`
	Email          *string        `json:"email,omitempty"`
	Status         CustomerStatus `json:"status"`
	SMSConsent     bool           `json:"sms_consent"`
	SMSConsentDate *time.Time     `json:"sms_consent_date,omitempty"`
	Vehicles       []*Vehicle     `json:"vehicles,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type Vehicle struct {
	ID                   uuid.UUID        `json:"id"`
	OrgID                string           `json:"org_id"`
	CustomerID           uuid.UUID        `json:"customer_id"`
	Year                 int              `json:"year"`
	Make                 string           `json:"make"`
	Model                string           `json:"model"`
	VIN                  *string          `json:"vin,omitempty"`
	LicensePlate         *string          `json:"license_plate,omitempty"`
	MileageAtLastService *int             `json:"mileage_at_last_service,omitempty"`
	ServiceRecords       []*ServiceRecord `json:"service_records,omitempty"`
}

// LatestServiceRecord returns the record with the most recent service date, or nil.
func (v *Vehicle) LatestServiceRecord() *ServiceRecord {
	var latest *ServiceRecord
	for _, r := range v.ServiceRecords {
		if latest == nil || r.ServiceDate.After(latest.ServiceDate) {
			latest = r
		}
	}
	return latest
}

// ServiceRecord carries a due snapshot computed once when the record is created.
type ServiceRecord struct {
	ID               uuid.UUID `json:"id"`
	OrgID            string    `json:"org_id"`
	VehicleID        uuid.UUID `json:"vehicle_id"`
	ServiceDate      time.Time `json:"service_date"`
	MileageAtService int       `json:"mileage_at_service"`
	ServiceType      string    `json:"service_type"`
	Notes            *string   `json:"notes,omitempty"`
	NextDueDate      time.Time `json:"next_due_date"`
	NextDueMileage   *int      `json:"next_due_mileage,omitempty"`
}

type ConsentAction string

const (
	ConsentOptIn  ConsentAction = "opt_in"
	ConsentOptOut ConsentAction = "opt_out"
)

const (
	ConsentSourceCSVImport = "csv_import"
	ConsentSourceManual    = "manual"
)

type ConsentLog struct {
	ID          uuid.UUID     `json:"id"`
	OrgID       string        `json:"org_id"`
	CustomerID  uuid.UUID     `json:"customer_id"`
	Action      ConsentAction `json:"action"`
	Source      string        `json:"source"`
	PerformedBy string        `json:"performed_by"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CustomerCreateRequest is the input of manual customer entry.
type CustomerCreateRequest struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Phone      string  `json:"phone"`
	Email      *string `json:"email,omitempty"`
	SMSConsent bool    `json:"smsConsent"`
	Vehicle    *struct {
		Year         int     `json:"year"`
		Make         string  `json:"make"`
		Model        string  `json:"model"`
		VIN          *string `json:"vin,omitempty"`
		LicensePlate *string `json:"licensePlate,omitempty"`
	} `json:"vehicle,omitempty"`
}

func (p CustomerCreateRequest) Validate() error {
	if p.FirstName == "" {
		return invalid("firstName is required")
	}
	if p.Phone == "" {
		return invalid("phone is required")
	}
	return nil
}

// ServiceRecordCreateRequest is the input of manual service entry.
type ServiceRecordCreateRequest struct {
	VehicleID        uuid.UUID `json:"vehicleId"`
	ServiceDate      time.Time `json:"serviceDate"`
	MileageAtService int       `json:"mileageAtService"`
	ServiceType      string    `json:"serviceType"`
	Notes            *string   `json:"notes,omitempty"`
}

func (p ServiceRecordCreateRequest) Validate() error {
	if p.VehicleID == uuid.Nil {
		return invalid("vehicleId is required")
	}
	if p.ServiceType == "" {
		return invalid("serviceType is required")
	}
	if p.ServiceDate.IsZero() {
		return invalid("serviceDate is required")
	}
	if p.MileageAtService < 0 {
		return invalid("mileageAtService cannot be negative")
	}
	return nil
}

// CustomerFilter controls List queries.
type CustomerFilter struct {
	Status CustomerStatus
	Limit  int
	Offset int
}
