package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/pkg/logger"
)

const (
	trialPeriod             = 14 * 24 * time.Hour
	defaultSubscription     = "trial"
	defaultSubscriptionTier = "starter"
	defaultQuietStart       = 21
	defaultQuietEnd         = 8
)

var ErrOrganizationNotFound = errors.New("organization not found")

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// OrganizationService provisions tenants and manages their reminder settings.
type OrganizationService struct {
	orgs   OrganizationRepository
	config ReminderConfigRepository
	seeder *SeedService
	now    func() time.Time
}

func NewOrganizationService(orgs OrganizationRepository, config ReminderConfigRepository, seeder *SeedService) *OrganizationService {
	return &OrganizationService{
		orgs:   orgs,
		config: config,
		seeder: seeder,
		now:    time.Now,
	}
}

// Ensure returns the tenant, creating it with trial defaults and seeded reminder setup when missing.
func (s *OrganizationService) Ensure(ctx context.Context, orgID, name string) (*model.Organization, error) {
	org, err := s.orgs.Get(ctx, orgID)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, repository.ErrOrganizationMissing) {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = orgID
	}
	trialEnds := s.now().Add(trialPeriod)
	org, err = s.orgs.Create(ctx, &model.Organization{
		ID:                 orgID,
		Name:               name,
		Slug:               slugify(name, orgID),
		ReminderEnabled:    true,
		ReminderQuietStart: defaultQuietStart,
		ReminderQuietEnd:   defaultQuietEnd,
		SubscriptionStatus: defaultSubscription,
		SubscriptionTier:   defaultSubscriptionTier,
		TrialEndsAt:        &trialEnds,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a provisioning race, the other caller seeds
		return s.orgs.Get(ctx, orgID)
	}
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	logger.Info("organization provisioned", "org_id", orgID)

	if err := s.seeder.Seed(ctx, orgID); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) Get(ctx context.Context, orgID string) (*model.Organization, error) {
	org, err := s.orgs.Get(ctx, orgID)
	if errors.Is(err, repository.ErrOrganizationMissing) {
		return nil, ErrOrganizationNotFound
	}
	return org, err
}

// ReminderSettings returns the toggle, quiet hours and service types, seeding
// defaults for tenants that have no service types yet.
func (s *OrganizationService) ReminderSettings(ctx context.Context, orgID string) (*model.ReminderSettingsView, error) {
	view := &model.ReminderSettingsView{}

	org, err := s.orgs.Get(ctx, orgID)
	switch {
	case err == nil:
		view.Settings = &model.ReminderSettings{
			Enabled:    org.ReminderEnabled,
			QuietStart: org.ReminderQuietStart,
			QuietEnd:   org.ReminderQuietEnd,
		}
	case !errors.Is(err, repository.ErrOrganizationMissing):
		return nil, err
	}

	types, err := s.config.ListServiceTypes(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		if err := s.seeder.Seed(ctx, orgID); err != nil {
			return nil, err
		}
		if types, err = s.config.ListServiceTypes(ctx, orgID); err != nil {
			return nil, err
		}
	}
	view.ServiceTypes = types
	return view, nil
}

// UpdateReminderSettings saves the toggle and quiet hours, updates lead days of existing
// service types and creates the ones without an id as custom types.
func (s *OrganizationService) UpdateReminderSettings(ctx context.Context, orgID string, p model.ReminderSettingsUpdate) error {
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	for _, st := range p.ServiceTypes {
		if err := st.Validate(); err != nil {
			return err
		}
	}

	return s.config.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orgs.UpdateReminderSettings(ctx, orgID, p.Settings); err != nil {
			if errors.Is(err, repository.ErrOrganizationMissing) {
				return ErrOrganizationNotFound
			}
			return err
		}

		var created []*model.ServiceType
		for _, st := range p.ServiceTypes {
			if st.ID != nil {
				if err := s.config.UpdateLeadDays(ctx, orgID, *st.ID, st.ReminderLeadDays); err != nil {
					return fmt.Errorf("update service type %s: %w", st.ID, err)
				}
				continue
			}
			created = append(created, &model.ServiceType{
				Name:                    st.Name,
				DisplayName:             st.DisplayName,
				DefaultMileageInterval:  st.DefaultMileageInterval,
				DefaultTimeIntervalDays: st.DefaultTimeIntervalDays,
				ReminderLeadDays:        st.ReminderLeadDays,
				IsActive:                true,
				IsCustom:                true,
			})
		}
		if _, err := s.config.CreateServiceTypes(ctx, orgID, created); err != nil {
			return fmt.Errorf("create service types: %w", err)
		}
		return nil
	})
}

func slugify(name, fallback string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return fallback
	}
	return slug
}
