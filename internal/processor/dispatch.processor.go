package processor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gateway "github.com/nimasrn/service-reminders/internal/gateways"
	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/internal/queue"
	"github.com/nimasrn/service-reminders/internal/repository"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/nimasrn/service-reminders/pkg/prom"
)

// Dispatch outcomes, also used as the dispatch metric label.
const (
	DispatchSent    = "sent"
	DispatchFailed  = "failed"
	DispatchRetry   = "retry"
	DispatchSkipped = "skipped"
	DispatchInvalid = "invalid"
)

const (
	ReasonTransportInactive = "Twilio not configured or inactive"
	ReasonMaxAttempts       = "Maximum send attempts exceeded"
)

type MessageRepository interface {
	Get(ctx context.Context, orgID string, id uuid.UUID) (*model.ReminderMessage, error)
	MarkSent(ctx context.Context, orgID string, id uuid.UUID, providerSID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, orgID string, id uuid.UUID, reason string) error
}

type TransportConfigRepository interface {
	GetTwilioConfig(ctx context.Context, orgID string) (*model.TwilioConfig, error)
}

type Sender interface {
	Send(ctx context.Context, cfg *model.TwilioConfig, req *gateway.SendRequest) (*gateway.SendResponse, error)
}

// DispatchProcessor sends queued reminder messages and records the outcome
// on the message row. Only messages still queued are sent.
type DispatchProcessor struct {
	messages    MessageRepository
	transports  TransportConfigRepository
	sender      Sender
	idempotency *IdempotencyService
}

func NewDispatchProcessor(messages MessageRepository, transports TransportConfigRepository, sender Sender, idempotency *IdempotencyService) *DispatchProcessor {
	return &DispatchProcessor{
		messages:    messages,
		transports:  transports,
		sender:      sender,
		idempotency: idempotency,
	}
}

func (p *DispatchProcessor) GetType() string {
	return "reminder_dispatch"
}

// Process returns an error only when the stream should redeliver the job.
func (p *DispatchProcessor) Process(ctx context.Context, qm *queue.Message) error {
	var job model.DispatchJob
	if err := qm.Decode(&job); err != nil || job.MessageID == uuid.Nil || job.OrgID == "" {
		logger.Error("invalid dispatch job", "stream_id", qm.ID, "error", err)
		prom.IncDispatch(DispatchInvalid)
		return nil
	}
	messageID := job.MessageID.String()

	// A previous attempt reached the provider but did not record it.
	if sid, ok, err := p.idempotency.SentSID(ctx, messageID); err == nil && ok {
		p.recordSent(ctx, job, sid, time.Now())
		return nil
	}

	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, messageID)
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		logger.Info("message already sent, skipping", "message_id", messageID)
		prom.IncDispatch(DispatchSkipped)
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		p.fail(ctx, job, ReasonMaxAttempts)
		return nil
	case err != nil:
		prom.IncDispatch(DispatchRetry)
		return err
	}
	defer func() {
		_ = p.idempotency.ReleaseLock(ctx, procCtx)
	}()

	msg, err := p.messages.Get(ctx, job.OrgID, job.MessageID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Warn("dispatch job for unknown message", "message_id", messageID, "org_id", job.OrgID)
		prom.IncDispatch(DispatchSkipped)
		return nil
	}
	if err != nil {
		prom.IncDispatch(DispatchRetry)
		return err
	}
	if msg.Status != model.MessageStatusQueued {
		logger.Info("message no longer queued, skipping", "message_id", messageID, "status", msg.Status)
		prom.IncDispatch(DispatchSkipped)
		return nil
	}

	cfg, err := p.transports.GetTwilioConfig(ctx, job.OrgID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		prom.IncDispatch(DispatchRetry)
		return err
	}
	if cfg == nil || !cfg.IsActive {
		p.fail(ctx, job, ReasonTransportInactive)
		return nil
	}

	res, err := p.sender.Send(ctx, cfg, &gateway.SendRequest{
		MessageID: messageID,
		From:      msg.FromPhone,
		To:        msg.ToPhone,
		Body:      msg.Body,
	})
	if errors.Is(err, gateway.ErrTransportInactive) || errors.Is(err, gateway.ErrMissingRecipient) {
		p.fail(ctx, job, err.Error())
		return nil
	}
	if err != nil {
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("failed to record send failure", "message_id", messageID, "error", markErr)
		}
		if procCtx.RetryCount+1 >= p.idempotency.config.MaxRetries {
			p.fail(ctx, job, err.Error())
			return nil
		}
		prom.IncDispatch(DispatchRetry)
		return err
	}

	if err := p.idempotency.MarkSent(ctx, procCtx, res.SID); err != nil {
		logger.Error("failed to store sent marker", "message_id", messageID, "error", err)
	}
	p.recordSent(ctx, job, res.SID, res.SentAt)
	return nil
}

func (p *DispatchProcessor) recordSent(ctx context.Context, job model.DispatchJob, sid string, at time.Time) {
	err := p.messages.MarkSent(ctx, job.OrgID, job.MessageID, sid, at)
	switch {
	case err == nil:
		logger.Info("reminder sent", "message_id", job.MessageID, "org_id", job.OrgID, "sid", sid)
		prom.IncDispatch(DispatchSent)
	case errors.Is(err, repository.ErrStatusConflict):
		prom.IncDispatch(DispatchSkipped)
	default:
		logger.Error("failed to mark message sent", "message_id", job.MessageID, "sid", sid, "error", err)
	}
}

func (p *DispatchProcessor) fail(ctx context.Context, job model.DispatchJob, reason string) {
	err := p.messages.MarkFailed(ctx, job.OrgID, job.MessageID, reason)
	if err != nil && !errors.Is(err, repository.ErrStatusConflict) && !errors.Is(err, repository.ErrNotFound) {
		logger.Error("failed to mark message failed", "message_id", job.MessageID, "error", err)
		return
	}
	logger.Warn("reminder dispatch failed", "message_id", job.MessageID, "org_id", job.OrgID, "reason", reason)
	prom.IncDispatch(DispatchFailed)
}
