package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/service-reminders/internal/model"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

var (
	ErrTransportInactive = errors.New("twilio transport not configured or inactive")
	ErrMissingRecipient  = errors.New("recipient phone is required")
	ErrSendTimeout       = errors.New("twilio request timed out")
)

// MessageAPI is the part of the Twilio REST client used to send SMS.
type MessageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// ClientFactory builds a MessageAPI for one account.
type ClientFactory func(accountSID, authToken string) MessageAPI

func NewTwilioClient(accountSID, authToken string) MessageAPI {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return client.Api
}

type SendRequest struct {
	MessageID string
	From      string
	To        string
	Body      string
}

type SendResponse struct {
	SID    string
	Status string
	SentAt time.Time
}

// SenderMetrics tracks request outcomes per account.
type SenderMetrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	ConsecutiveFails atomic.Int32
}

func (m *SenderMetrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.ConsecutiveFails.Store(0)
}

func (m *SenderMetrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
}

func (m *SenderMetrics) AvgLatencyMs() int64 {
	ok := m.SuccessfulReqs.Load()
	if ok == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / ok
}

type account struct {
	token   string
	api     MessageAPI
	metrics *SenderMetrics
}

// TwilioSender sends SMS with the credentials of the message's organization.
// Clients are cached per account SID and rebuilt when the token changes.
type TwilioSender struct {
	factory  ClientFactory
	timeout  time.Duration
	mu       sync.Mutex
	accounts map[string]*account
}

type SenderOption func(*TwilioSender)

func WithClientFactory(f ClientFactory) SenderOption {
	return func(s *TwilioSender) { s.factory = f }
}

func NewTwilioSender(timeout time.Duration, opts ...SenderOption) *TwilioSender {
	s := &TwilioSender{
		factory:  NewTwilioClient,
		timeout:  timeout,
		accounts: make(map[string]*account),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *TwilioSender) accountFor(cfg *model.TwilioConfig) *account {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[cfg.AccountSID]; ok && a.token == cfg.AuthToken {
		return a
	}
	a := &account{
		token:   cfg.AuthToken,
		api:     s.factory(cfg.AccountSID, cfg.AuthToken),
		metrics: &SenderMetrics{},
	}
	s.accounts[cfg.AccountSID] = a
	return a
}

// Metrics returns the counters of an account, nil when it never sent.
func (s *TwilioSender) Metrics(accountSID string) *SenderMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[accountSID]; ok {
		return a.metrics
	}
	return nil
}

func (s *TwilioSender) Send(ctx context.Context, cfg *model.TwilioConfig, req *SendRequest) (*SendResponse, error) {
	if cfg == nil || !cfg.IsActive || cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, ErrTransportInactive
	}
	if req.To == "" {
		return nil, ErrMissingRecipient
	}

	from := req.From
	if from == "" {
		from = cfg.PhoneNumber
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(req.To)
	params.SetFrom(from)
	params.SetBody(req.Body)

	a := s.accountFor(cfg)
	start := time.Now()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type result struct {
		msg *twilioApi.ApiV2010Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := a.api.CreateMessage(params)
		done <- result{msg: msg, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		a.metrics.RecordFailure()
		return nil, fmt.Errorf("%w: %v", ErrSendTimeout, ctx.Err())
	}

	if res.err != nil {
		a.metrics.RecordFailure()
		logger.Warn("twilio send failed",
			"message_id", req.MessageID,
			"account", cfg.AccountSID,
			"consecutive_fails", a.metrics.ConsecutiveFails.Load(),
			"error", res.err)
		return nil, fmt.Errorf("twilio create message: %w", res.err)
	}

	a.metrics.RecordSuccess(time.Since(start).Milliseconds())

	out := &SendResponse{SentAt: time.Now()}
	if res.msg != nil {
		if res.msg.Sid != nil {
			out.SID = *res.msg.Sid
		}
		if res.msg.Status != nil {
			out.Status = *res.msg.Status
		}
	}
	return out, nil
}
