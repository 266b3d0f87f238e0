package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/pg"
)

type ReminderMessageRepository struct {
	*pg.DB
}

func NewReminderMessageRepository(db *pg.DB) *ReminderMessageRepository {
	return &ReminderMessageRepository{
		db,
	}
}

func activeStatuses() []string {
	statuses := make([]string, len(model.ActiveMessageStatuses))
	for i, s := range model.ActiveMessageStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

// ExistsActive reports whether a queued, sent or delivered message already covers the tuple.
func (r *ReminderMessageRepository) ExistsActive(ctx context.Context, orgID string, key model.DedupKey) (bool, error) {
	var n int64
	err := r.Read(ctx).
		Model(&ReminderMessageEntity{}).
		Where("org_id = ?", orgID).
		Where("customer_id = ? AND vehicle_id = ? AND service_record_id = ? AND reminder_rule_id = ?",
			key.CustomerID, key.VehicleID, key.ServiceRecordID, key.ReminderRuleID).
		Where("status IN ?", activeStatuses()).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a message, ErrDuplicate means another active message holds the same tuple.
func (r *ReminderMessageRepository) Create(ctx context.Context, orgID string, msg *model.ReminderMessage) (*model.ReminderMessage, error) {
	msg.OrgID = orgID
	entity := toMessageEntity(msg)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toMessageModel(entity), nil
}

func (r *ReminderMessageRepository) Get(ctx context.Context, orgID string, id uuid.UUID) (*model.ReminderMessage, error) {
	var entity ReminderMessageEntity
	err := r.Read(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&entity).
		Error
	if err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return toMessageModel(&entity), nil
}

func (r *ReminderMessageRepository) ListByCustomer(ctx context.Context, orgID string, customerID uuid.UUID) ([]*model.ReminderMessage, error) {
	var entities []*ReminderMessageEntity
	err := r.Read(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customerID).
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toMessageModels(entities), nil
}

// MarkSent moves a queued message to sent.
func (r *ReminderMessageRepository) MarkSent(ctx context.Context, orgID string, id uuid.UUID, providerSID string, sentAt time.Time) error {
	return r.transition(ctx, orgID, id, map[string]any{
		"status":       string(model.MessageStatusSent),
		"provider_sid": providerSID,
		"sent_at":      sentAt,
	})
}

// MarkFailed moves a queued message to failed, which frees its dedup tuple.
func (r *ReminderMessageRepository) MarkFailed(ctx context.Context, orgID string, id uuid.UUID, reason string) error {
	return r.transition(ctx, orgID, id, map[string]any{
		"status":        string(model.MessageStatusFailed),
		"error_message": reason,
	})
}

func (r *ReminderMessageRepository) transition(ctx context.Context, orgID string, id uuid.UUID, updates map[string]any) error {
	result := r.Write(ctx).
		Model(&ReminderMessageEntity{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, id, string(model.MessageStatusQueued)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.Get(ctx, orgID, id); err != nil {
		return err
	}
	return ErrStatusConflict
}
