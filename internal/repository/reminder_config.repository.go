package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/pg"
)

// ReminderConfigRepository stores per-organization service types, templates and rules.
type ReminderConfigRepository struct {
	*pg.DB
}

func NewReminderConfigRepository(db *pg.DB) *ReminderConfigRepository {
	return &ReminderConfigRepository{
		db,
	}
}

func (r *ReminderConfigRepository) count(ctx context.Context, entity any, orgID string) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(entity).Where("org_id = ?", orgID).Count(&n).Error
	return n, err
}

func (r *ReminderConfigRepository) CountServiceTypes(ctx context.Context, orgID string) (int64, error) {
	return r.count(ctx, &ServiceTypeEntity{}, orgID)
}

func (r *ReminderConfigRepository) CountTemplates(ctx context.Context, orgID string) (int64, error) {
	return r.count(ctx, &ReminderTemplateEntity{}, orgID)
}

func (r *ReminderConfigRepository) CountRules(ctx context.Context, orgID string) (int64, error) {
	return r.count(ctx, &ReminderRuleEntity{}, orgID)
}

func (r *ReminderConfigRepository) ListServiceTypes(ctx context.Context, orgID string) ([]*model.ServiceType, error) {
	var entities []*ServiceTypeEntity
	err := r.Read(ctx).
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toServiceTypeModels(entities), nil
}

func (r *ReminderConfigRepository) CreateServiceTypes(ctx context.Context, orgID string, types []*model.ServiceType) ([]*model.ServiceType, error) {
	if len(types) == 0 {
		return nil, nil
	}
	entities := make([]*ServiceTypeEntity, len(types))
	for i, st := range types {
		st.OrgID = orgID
		entities[i] = toServiceTypeEntity(st)
	}
	if err := r.Write(ctx).Create(&entities).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toServiceTypeModels(entities), nil
}

func (r *ReminderConfigRepository) UpdateLeadDays(ctx context.Context, orgID string, id uuid.UUID, leadDays int) error {
	result := r.Write(ctx).
		Model(&ServiceTypeEntity{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Update("reminder_lead_days", leadDays)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReminderConfigRepository) ListTemplates(ctx context.Context, orgID string) ([]*model.ReminderTemplate, error) {
	var entities []*ReminderTemplateEntity
	err := r.Read(ctx).
		Where("org_id = ?", orgID).
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toTemplateModels(entities), nil
}

func (r *ReminderConfigRepository) CreateTemplates(ctx context.Context, orgID string, templates []*model.ReminderTemplate) ([]*model.ReminderTemplate, error) {
	if len(templates) == 0 {
		return nil, nil
	}
	entities := make([]*ReminderTemplateEntity, len(templates))
	for i, t := range templates {
		t.OrgID = orgID
		entities[i] = toTemplateEntity(t)
	}
	if err := r.Write(ctx).Create(&entities).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toTemplateModels(entities), nil
}

func (r *ReminderConfigRepository) CreateRules(ctx context.Context, orgID string, rules []*model.ReminderRule) ([]*model.ReminderRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	entities := make([]*ReminderRuleEntity, len(rules))
	for i, rule := range rules {
		rule.OrgID = orgID
		entities[i] = toRuleEntity(rule)
	}
	if err := r.Write(ctx).Create(&entities).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toRuleModels(entities), nil
}

// ListRules returns every rule of the organization with its service type and template.
func (r *ReminderConfigRepository) ListRules(ctx context.Context, orgID string) ([]*model.ReminderRule, error) {
	return r.listRules(ctx, orgID, false)
}

// ListActiveRules returns active rules ordered by sequence, with service type and template loaded.
func (r *ReminderConfigRepository) ListActiveRules(ctx context.Context, orgID string) ([]*model.ReminderRule, error) {
	return r.listRules(ctx, orgID, true)
}

func (r *ReminderConfigRepository) listRules(ctx context.Context, orgID string, activeOnly bool) ([]*model.ReminderRule, error) {
	q := r.Read(ctx).
		Preload("ServiceType").
		Preload("Template").
		Where("org_id = ?", orgID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var entities []*ReminderRuleEntity
	err := q.Order("sequence_number ASC").
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toRuleModels(entities), nil
}

func (r *ReminderConfigRepository) SetRuleActive(ctx context.Context, orgID string, id uuid.UUID, active bool) error {
	result := r.Write(ctx).
		Model(&ReminderRuleEntity{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
