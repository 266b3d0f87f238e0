package repository

import (
	"context"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/pg"
	"gorm.io/gorm/clause"
)

type OrganizationRepository struct {
	*pg.DB
}

func NewOrganizationRepository(db *pg.DB) *OrganizationRepository {
	return &OrganizationRepository{
		db,
	}
}

func (r *OrganizationRepository) Get(ctx context.Context, orgID string) (*model.Organization, error) {
	var entity OrganizationEntity
	err := r.Read(ctx).
		Where("id = ?", orgID).
		First(&entity).
		Error
	if err != nil {
		return nil, translate(err, ErrOrganizationMissing)
	}
	return toOrganizationModel(&entity), nil
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	entity := toOrganizationEntity(org)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toOrganizationModel(entity), nil
}

func (r *OrganizationRepository) UpdateReminderSettings(ctx context.Context, orgID string, s model.ReminderSettings) error {
	result := r.Write(ctx).
		Model(&OrganizationEntity{}).
		Where("id = ?", orgID).
		Updates(map[string]any{
			"reminder_enabled":     s.Enabled,
			"reminder_quiet_start": s.QuietStart,
			"reminder_quiet_end":   s.QuietEnd,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrganizationMissing
	}
	return nil
}

// ListReminderEnabled enumerates tenants for the scheduler; it is the only
// query that is not scoped to a single organization.
func (r *OrganizationRepository) ListReminderEnabled(ctx context.Context) ([]*model.Organization, error) {
	var entities []*OrganizationEntity
	err := r.Read(ctx).
		Where("reminder_enabled = ?", true).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	orgs := make([]*model.Organization, len(entities))
	for i, e := range entities {
		orgs[i] = toOrganizationModel(e)
	}
	return orgs, nil
}

func (r *OrganizationRepository) GetTwilioConfig(ctx context.Context, orgID string) (*model.TwilioConfig, error) {
	var entity TwilioConfigEntity
	err := r.Read(ctx).
		Where("org_id = ?", orgID).
		First(&entity).
		Error
	if err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toTwilioConfigModel(&entity), nil
}

func (r *OrganizationRepository) SaveTwilioConfig(ctx context.Context, orgID string, cfg *model.TwilioConfig) (*model.TwilioConfig, error) {
	entity := &TwilioConfigEntity{
		Model:       pg.Model{ID: cfg.ID},
		OrgID:       orgID,
		AccountSID:  cfg.AccountSID,
		AuthToken:   cfg.AuthToken,
		PhoneNumber: cfg.PhoneNumber,
		IsActive:    cfg.IsActive,
	}
	err := r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_sid", "auth_token", "phone_number", "is_active", "updated_at"}),
		}).
		Create(entity).
		Error
	if err != nil {
		return nil, err
	}
	return r.GetTwilioConfig(ctx, orgID)
}
