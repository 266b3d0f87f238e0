package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/internal/status"
	"github.com/nimasrn/service-reminders/internal/templates"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/prom"
)

const (
	ReasonQuietHours        = "Quiet hours - skipping evaluation"
	ReasonTransportInactive = "Twilio not configured or inactive"
	ReasonNoActiveRules     = "No active reminder rules"

	DefaultFireWindowDays = 3

	dueDateLayout = "Jan 2"
)

// IsQuietHour reports whether hour falls in [start, end). A window with start > end wraps past midnight.
func IsQuietHour(hour, start, end int) bool {
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// ReminderService evaluates reminder rules against a tenant's customers and queues messages.
type ReminderService struct {
	orgs           OrganizationRepository
	config         ReminderConfigRepository
	customers      CustomerRepository
	messages       ReminderMessageRepository
	publisher      DispatchPublisher
	fireWindowDays int
	now            func() time.Time
}

type ReminderOption func(*ReminderService)

// WithPublisher makes every queued message also land on the dispatch stream.
func WithPublisher(p DispatchPublisher) ReminderOption {
	return func(s *ReminderService) {
		s.publisher = p
	}
}

func WithFireWindowDays(days int) ReminderOption {
	return func(s *ReminderService) {
		if days > 0 {
			s.fireWindowDays = days
		}
	}
}

func WithClock(now func() time.Time) ReminderOption {
	return func(s *ReminderService) {
		s.now = now
	}
}

func NewReminderService(orgs OrganizationRepository, config ReminderConfigRepository, customers CustomerRepository, messages ReminderMessageRepository, opts ...ReminderOption) *ReminderService {
	s := &ReminderService{
		orgs:           orgs,
		config:         config,
		customers:      customers,
		messages:       messages,
		fireWindowDays: DefaultFireWindowDays,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs one idempotent pass for the organization. Precondition failures come back
// as a skipped result with the reason in Errors; per-message failures are collected and the
// pass continues. Only failing to load rules or customers returns an error.
func (s *ReminderService) Evaluate(ctx context.Context, org *model.Organization) (*model.EvaluationResult, error) {
	started := time.Now()
	defer func() {
		prom.AddReminderEvaluationDuration(time.Since(started).Seconds())
	}()

	now := s.now()

	if IsQuietHour(now.In(org.Location()).Hour(), org.ReminderQuietStart, org.ReminderQuietEnd) {
		return s.skip(org, "quiet_hours", ReasonQuietHours), nil
	}

	transport, err := s.orgs.GetTwilioConfig(ctx, org.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load transport config: %w", err)
	}
	if transport == nil || !transport.IsActive {
		return s.skip(org, "transport_inactive", ReasonTransportInactive), nil
	}

	rules, err := s.config.ListActiveRules(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	if len(rules) == 0 {
		return s.skip(org, "no_rules", ReasonNoActiveRules), nil
	}

	customers, err := s.customers.ListConsented(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}

	result := &model.EvaluationResult{Errors: []string{}}
	windowStart := now.AddDate(0, 0, -s.fireWindowDays)

	for _, c := range customers {
		for _, v := range c.Vehicles {
			rec := v.LatestServiceRecord()
			if rec == nil {
				continue
			}
			for _, rule := range rules {
				if rule.ServiceType == nil || !status.MatchesServiceType(rule.ServiceType.Name, rec.ServiceType) {
					continue
				}

				scheduled := rec.NextDueDate.AddDate(0, 0, rule.OffsetDays)
				if scheduled.After(now) || scheduled.Before(windowStart) {
					continue
				}

				queued, err := s.queue(ctx, org, transport, c, v, rec, rule, scheduled)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Failed to queue for %s %s: %v", c.FirstName, c.LastName, err))
					continue
				}
				if queued {
					result.Queued++
				}
			}
		}
	}

	prom.AddReminderQueued(result.Queued)
	logger.Info("reminder evaluation finished", "org_id", org.ID, "queued", result.Queued, "errors", len(result.Errors))
	return result, nil
}

func (s *ReminderService) skip(org *model.Organization, label, reason string) *model.EvaluationResult {
	prom.IncReminderSkipped(label)
	logger.Debug("reminder evaluation skipped", "org_id", org.ID, "reason", reason)
	return &model.EvaluationResult{Errors: []string{reason}, Skipped: true}
}

// queue inserts one message unless the dedup tuple is already taken. It returns false
// without an error for dedup hits, including ones lost to a concurrent run.
func (s *ReminderService) queue(ctx context.Context, org *model.Organization, transport *model.TwilioConfig,
	c *model.Customer, v *model.Vehicle, rec *model.ServiceRecord, rule *model.ReminderRule, scheduled time.Time) (bool, error) {

	msg := &model.ReminderMessage{
		CustomerID:      c.ID,
		VehicleID:       v.ID,
		ServiceRecordID: rec.ID,
		ReminderRuleID:  rule.ID,
		Direction:       model.DirectionOutbound,
		Status:          model.MessageStatusQueued,
		ScheduledAt:     scheduled,
		FromPhone:       transport.PhoneNumber,
		ToPhone:         c.Phone,
	}

	exists, err := s.messages.ExistsActive(ctx, org.ID, msg.DedupKey())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	body := templates.Fallback(rule.SequenceNumber)
	if rule.Template != nil {
		body = rule.Template.Body
		msg.TemplateID = &rule.Template.ID
	}
	var unknown []string
	msg.Body, unknown = renderBody(body, map[string]string{
		"firstName":   c.FirstName,
		"shopName":    org.Name,
		"shopPhone":   org.Phone,
		"serviceType": rule.ServiceType.DisplayName,
		"dueDate":     rec.NextDueDate.UTC().Format(dueDateLayout),
		"vehicleYear": strconv.Itoa(v.Year),
		"vehicleMake": v.Make,
	})
	if len(unknown) > 0 {
		logger.Warn("template has unresolved placeholders", "org_id", org.ID, "rule_id", rule.ID, "placeholders", unknown)
	}

	created, err := s.messages.Create(ctx, org.ID, msg)
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.publish(ctx, created)
	return true, nil
}

// renderBody fills the template and reports placeholders it left untouched.
func renderBody(body string, vars map[string]string) (string, []string) {
	known := make([]string, 0, len(vars))
	for k := range vars {
		known = append(known, k)
	}
	return templates.Render(body, vars), templates.Unknown(body, known)
}

// publish is best-effort; the stored row stays authoritative for the dispatcher.
func (s *ReminderService) publish(ctx context.Context, msg *model.ReminderMessage) {
	if s.publisher == nil {
		return
	}
	job := model.DispatchJob{MessageID: msg.ID, OrgID: msg.OrgID}
	if _, err := s.publisher.PublishJSON(ctx, job, map[string]string{"org_id": msg.OrgID}); err != nil {
		logger.Warn("failed to publish dispatch job", "message_id", msg.ID, "org_id", msg.OrgID, "error", err)
	}
}
