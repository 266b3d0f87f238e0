package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/pg"
)

type CustomerEntity struct {
	pg.Model
	OrgID          string           `gorm:"column:org_id;not null;uniqueIndex:ux_customers_org_phone;index:ix_customers_org_status"`
	FirstName      string           `gorm:"column:first_name;not null"`
	LastName       string           `gorm:"column:last_name;not null"`
	Phone          string           `gorm:"column:phone;not null;uniqueIndex:ux_customers_org_phone"`
	Email          *string          `gorm:"column:email"`
	Status         string           `gorm:"column:status;not null;index:ix_customers_org_status"`
	SMSConsent     bool             `gorm:"column:sms_consent;not null"`
	SMSConsentDate *time.Time       `gorm:"column:sms_consent_date"`
	Vehicles       []*VehicleEntity `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

type VehicleEntity struct {
	pg.Model
	OrgID                string                 `gorm:"column:org_id;not null"`
	CustomerID           uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	Year                 int                    `gorm:"column:year;not null"`
	Make                 string                 `gorm:"column:make;not null"`
	ModelName            string                 `gorm:"column:model;not null"`
	VIN                  *string                `gorm:"column:vin"`
	LicensePlate         *string                `gorm:"column:license_plate"`
	MileageAtLastService *int                   `gorm:"column:mileage_at_last_service"`
	ServiceRecords       []*ServiceRecordEntity `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
}

func (VehicleEntity) TableName() string {
	return "vehicles"
}

type ServiceRecordEntity struct {
	pg.Model
	OrgID            string    `gorm:"column:org_id;not null"`
	VehicleID        uuid.UUID `gorm:"column:vehicle_id;type:uuid;not null;index"`
	ServiceDate      time.Time `gorm:"column:service_date;not null"`
	MileageAtService int       `gorm:"column:mileage_at_service;not null"`
	ServiceType      string    `gorm:"column:service_type;not null"`
	Notes            *string   `gorm:"column:notes"`
	NextDueDate      time.Time `gorm:"column:next_due_date;not null"`
	NextDueMileage   *int      `gorm:"column:next_due_mileage"`
}

func (ServiceRecordEntity) TableName() string {
	return "service_records"
}

type ConsentLogEntity struct {
	pg.Model
	OrgID       string    `gorm:"column:org_id;not null"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Action      string    `gorm:"column:action;not null"`
	Source      string    `gorm:"column:source;not null"`
	PerformedBy string    `gorm:"column:performed_by;not null"`
	Notes       string    `gorm:"column:notes"`
}

func (ConsentLogEntity) TableName() string {
	return "consent_logs"
}

// toCustomerEntity maps the whole customer graph so one Create persists
// the customer, its vehicles and their service records together.
func toCustomerEntity(m *model.Customer) *CustomerEntity {
	if m == nil {
		return nil
	}
	e := &CustomerEntity{
		Model:          pg.Model{ID: m.ID},
		OrgID:          m.OrgID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Phone:          m.Phone,
		Email:          m.Email,
		Status:         string(m.Status),
		SMSConsent:     m.SMSConsent,
		SMSConsentDate: m.SMSConsentDate,
	}
	for _, v := range m.Vehicles {
		ve := toVehicleEntity(v)
		ve.OrgID = m.OrgID
		e.Vehicles = append(e.Vehicles, ve)
	}
	return e
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	m := &model.Customer{
		ID:             e.ID,
		OrgID:          e.OrgID,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Phone:          e.Phone,
		Email:          e.Email,
		Status:         model.CustomerStatus(e.Status),
		SMSConsent:     e.SMSConsent,
		SMSConsentDate: e.SMSConsentDate,
		CreatedAt:      e.CreatedAt,
	}
	for _, v := range e.Vehicles {
		m.Vehicles = append(m.Vehicles, toVehicleModel(v))
	}
	return m
}

func toCustomerModels(entities []*CustomerEntity) []*model.Customer {
	if entities == nil {
		return nil
	}
	models := make([]*model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}

func toVehicleEntity(m *model.Vehicle) *VehicleEntity {
	e := &VehicleEntity{
		Model:                pg.Model{ID: m.ID},
		OrgID:                m.OrgID,
		CustomerID:           m.CustomerID,
		Year:                 m.Year,
		Make:                 m.Make,
		ModelName:            m.Model,
		VIN:                  m.VIN,
		LicensePlate:         m.LicensePlate,
		MileageAtLastService: m.MileageAtLastService,
	}
	for _, r := range m.ServiceRecords {
		re := toServiceRecordEntity(r)
		re.OrgID = e.OrgID
		e.ServiceRecords = append(e.ServiceRecords, re)
	}
	return e
}

func toVehicleModel(e *VehicleEntity) *model.Vehicle {
	m := &model.Vehicle{
		ID:                   e.ID,
		OrgID:                e.OrgID,
		CustomerID:           e.CustomerID,
		Year:                 e.Year,
		Make:                 e.Make,
		Model:                e.ModelName,
		VIN:                  e.VIN,
		LicensePlate:         e.LicensePlate,
		MileageAtLastService: e.MileageAtLastService,
	}
	for _, r := range e.ServiceRecords {
		m.ServiceRecords = append(m.ServiceRecords, toServiceRecordModel(r))
	}
	return m
}

func toServiceRecordEntity(m *model.ServiceRecord) *ServiceRecordEntity {
	return &ServiceRecordEntity{
		Model:            pg.Model{ID: m.ID},
		OrgID:            m.OrgID,
		VehicleID:        m.VehicleID,
		ServiceDate:      m.ServiceDate,
		MileageAtService: m.MileageAtService,
		ServiceType:      m.ServiceType,
		Notes:            m.Notes,
		NextDueDate:      m.NextDueDate,
		NextDueMileage:   m.NextDueMileage,
	}
}

func toServiceRecordModel(e *ServiceRecordEntity) *model.ServiceRecord {
	return &model.ServiceRecord{
		ID:               e.ID,
		OrgID:            e.OrgID,
		VehicleID:        e.VehicleID,
		ServiceDate:      e.ServiceDate,
		MileageAtService: e.MileageAtService,
		ServiceType:      e.ServiceType,
		Notes:            e.Notes,
		NextDueDate:      e.NextDueDate,
		NextDueMileage:   e.NextDueMileage,
	}
}

func toConsentLogEntity(m *model.ConsentLog) *ConsentLogEntity {
	return &ConsentLogEntity{
		Model:       pg.Model{ID: m.ID},
		OrgID:       m.OrgID,
		CustomerID:  m.CustomerID,
		Action:      string(m.Action),
		Source:      m.Source,
		PerformedBy: m.PerformedBy,
		Notes:       m.Notes,
	}
}

func toConsentLogModel(e *ConsentLogEntity) *model.ConsentLog {
	return &model.ConsentLog{
		ID:          e.ID,
		OrgID:       e.OrgID,
		CustomerID:  e.CustomerID,
		Action:      model.ConsentAction(e.Action),
		Source:      e.Source,
		PerformedBy: e.PerformedBy,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
	}
}
