package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/templates"
	"github.com/nimasrn/service-reminders/pkg/logger"
)

type defaultServiceTypeDef struct {
	name            string
	displayName     string
	mileageInterval *int
	intervalDays    int
	leadDays        int
}

var defaultServiceTypes = []defaultServiceTypeDef{
	{"oil_change_conventional", "Oil Change (Conventional)", intPtr(5000), 90, 14},
	{"oil_change_synthetic", "Oil Change (Synthetic)", intPtr(7500), 180, 14},
	{"tire_rotation", "Tire Rotation", intPtr(7500), 180, 14},
	{"state_inspection", "State Inspection", nil, 365, 30},
}

// ruleSequence is one step of the default campaign; template indexes templates.Defaults.
type ruleSequence struct {
	sequence   int
	offsetDays int
	template   int
}

var defaultRuleSequences = []ruleSequence{
	{1, -14, 0},
	{2, 0, 1},
	{3, 7, 2},
}

// SeedService bootstraps a tenant with default service types, templates and rules.
// Each of the three groups is only created when the tenant has none, so reseeding
// never duplicates or overwrites customizations.
type SeedService struct {
	config ReminderConfigRepository
}

func NewSeedService(config ReminderConfigRepository) *SeedService {
	return &SeedService{config: config}
}

func (s *SeedService) Seed(ctx context.Context, orgID string) error {
	return s.config.WithinTransaction(ctx, func(ctx context.Context) error {
		types, err := s.ensureServiceTypes(ctx, orgID)
		if err != nil {
			return fmt.Errorf("seed service types: %w", err)
		}
		tpls, err := s.ensureTemplates(ctx, orgID)
		if err != nil {
			return fmt.Errorf("seed templates: %w", err)
		}
		if err := s.ensureRules(ctx, orgID, types, tpls); err != nil {
			return fmt.Errorf("seed rules: %w", err)
		}
		return nil
	})
}

func (s *SeedService) ensureServiceTypes(ctx context.Context, orgID string) ([]*model.ServiceType, error) {
	n, err := s.config.CountServiceTypes(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return s.config.ListServiceTypes(ctx, orgID)
	}

	types := make([]*model.ServiceType, len(defaultServiceTypes))
	for i, def := range defaultServiceTypes {
		types[i] = &model.ServiceType{
			Name:                    def.name,
			DisplayName:             def.displayName,
			DefaultMileageInterval:  def.mileageInterval,
			DefaultTimeIntervalDays: def.intervalDays,
			ReminderLeadDays:        def.leadDays,
			IsActive:                true,
		}
	}
	logger.Info("seeding default service types", "org_id", orgID)
	return s.config.CreateServiceTypes(ctx, orgID, types)
}

func (s *SeedService) ensureTemplates(ctx context.Context, orgID string) ([]*model.ReminderTemplate, error) {
	n, err := s.config.CountTemplates(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return s.config.ListTemplates(ctx, orgID)
	}

	tpls := make([]*model.ReminderTemplate, len(templates.Defaults))
	for i, def := range templates.Defaults {
		tpls[i] = &model.ReminderTemplate{
			Name:      def.Name,
			Body:      def.Body,
			IsDefault: true,
		}
	}
	logger.Info("seeding default templates", "org_id", orgID)
	return s.config.CreateTemplates(ctx, orgID, tpls)
}

func (s *SeedService) ensureRules(ctx context.Context, orgID string, types []*model.ServiceType, tpls []*model.ReminderTemplate) error {
	n, err := s.config.CountRules(ctx, orgID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	rules := make([]*model.ReminderRule, 0, len(types)*len(defaultRuleSequences))
	for _, st := range types {
		for _, seq := range defaultRuleSequences {
			rules = append(rules, &model.ReminderRule{
				ServiceTypeID:  st.ID,
				SequenceNumber: seq.sequence,
				OffsetDays:     seq.offsetDays,
				TemplateID:     templateFor(tpls, seq.template),
				IsActive:       true,
			})
		}
	}
	logger.Info("seeding default reminder rules", "org_id", orgID, "count", len(rules))
	_, err = s.config.CreateRules(ctx, orgID, rules)
	return err
}

// templateFor resolves the default template at idx by name, then by position.
func templateFor(tpls []*model.ReminderTemplate, idx int) *uuid.UUID {
	if idx < len(templates.Defaults) {
		for _, t := range tpls {
			if t.Name == templates.Defaults[idx].Name {
				id := t.ID
				return &id
			}
		}
	}
	if idx < len(tpls) {
		id := tpls[idx].ID
		return &id
	}
	return nil
}
