package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/pg"
	"gorm.io/gorm"
)

// CustomerRepository owns customers, their vehicles, service records and consent logs.
// Every method takes the organization id; nothing is readable across tenants.
type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

func latestRecordsFirst(db *gorm.DB) *gorm.DB {
	return db.Order("service_date DESC")
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, orgID, phone string) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).
		Where("org_id = ? AND phone = ?", orgID, phone).
		First(&entity).
		Error
	if err != nil {
		return nil, translate(err, ErrCustomerNotFound)
	}
	return toCustomerModel(&entity), nil
}

// CreateGraph inserts the customer with nested vehicles and service records in one statement batch.
// A phone already taken in the organization yields ErrDuplicate.
func (r *CustomerRepository) CreateGraph(ctx context.Context, orgID string, c *model.Customer) (*model.Customer, error) {
	c.OrgID = orgID
	entity := toCustomerEntity(c)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toCustomerModel(entity), nil
}

func (r *CustomerRepository) Get(ctx context.Context, orgID string, id uuid.UUID) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).
		Preload("Vehicles").
		Preload("Vehicles.ServiceRecords", latestRecordsFirst).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&entity).
		Error
	if err != nil {
		return nil, translate(err, ErrCustomerNotFound)
	}
	return toCustomerModel(&entity), nil
}

// ListConsented returns customers that opted in to SMS with their vehicles and
// service records, newest record first.
func (r *CustomerRepository) ListConsented(ctx context.Context, orgID string) ([]*model.Customer, error) {
	var entities []*CustomerEntity
	err := r.Read(ctx).
		Preload("Vehicles").
		Preload("Vehicles.ServiceRecords", latestRecordsFirst).
		Where("org_id = ? AND sms_consent = ?", orgID, true).
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toCustomerModels(entities), nil
}

func (r *CustomerRepository) List(ctx context.Context, orgID string, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	q := r.Read(ctx).Model(&CustomerEntity{}).Where("org_id = ?", orgID)
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*CustomerEntity
	err := q.Preload("Vehicles").
		Preload("Vehicles.ServiceRecords", latestRecordsFirst).
		Order("last_name ASC, first_name ASC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, 0, err
	}
	return toCustomerModels(entities), total, nil
}

func (r *CustomerRepository) UpdateStatus(ctx context.Context, orgID string, id uuid.UUID, status model.CustomerStatus) error {
	result := r.Write(ctx).
		Model(&CustomerEntity{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) UpdateConsent(ctx context.Context, orgID string, id uuid.UUID, consent bool, at *time.Time) error {
	result := r.Write(ctx).
		Model(&CustomerEntity{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{
			"sms_consent":      consent,
			"sms_consent_date": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) GetVehicle(ctx context.Context, orgID string, customerID, vehicleID uuid.UUID) (*model.Vehicle, error) {
	var entity VehicleEntity
	err := r.Read(ctx).
		Where("org_id = ? AND customer_id = ? AND id = ?", orgID, customerID, vehicleID).
		First(&entity).
		Error
	if err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toVehicleModel(&entity), nil
}

// AddServiceRecord stores the record and advances the vehicle's last known mileage.
// A backdated record with lower mileage leaves the vehicle's mileage as is.
func (r *CustomerRepository) AddServiceRecord(ctx context.Context, orgID string, rec *model.ServiceRecord) (*model.ServiceRecord, error) {
	rec.OrgID = orgID
	entity := toServiceRecordEntity(rec)
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).Create(entity).Error; err != nil {
			return err
		}
		return r.Write(ctx).
			Model(&VehicleEntity{}).
			Where("org_id = ? AND id = ?", orgID, rec.VehicleID).
			Where("(mileage_at_last_service IS NULL OR mileage_at_last_service < ?)", rec.MileageAtService).
			Update("mileage_at_last_service", rec.MileageAtService).
			Error
	})
	if err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toServiceRecordModel(entity), nil
}

func (r *CustomerRepository) AddConsentLog(ctx context.Context, orgID string, l *model.ConsentLog) error {
	l.OrgID = orgID
	return r.Write(ctx).Create(toConsentLogEntity(l)).Error
}

func (r *CustomerRepository) ListConsentLogs(ctx context.Context, orgID string, customerID uuid.UUID) ([]*model.ConsentLog, error) {
	var entities []*ConsentLogEntity
	err := r.Read(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customerID).
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	logs := make([]*model.ConsentLog, len(entities))
	for i, e := range entities {
		logs[i] = toConsentLogModel(e)
	}
	return logs, nil
}
