package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/service-reminders/internal/model"
	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

const testOrg = "org_test"

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, orgID string, p model.CustomerCreateRequest) (*model.Customer, error) {
	args := m.Called(ctx, orgID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerService) AddServiceRecord(ctx context.Context, orgID string, customerID uuid.UUID, p model.ServiceRecordCreateRequest) (*model.ServiceRecord, error) {
	args := m.Called(ctx, orgID, customerID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ServiceRecord), args.Error(1)
}

func (m *MockCustomerService) SetConsent(ctx context.Context, orgID string, customerID uuid.UUID, consent bool, performedBy string) error {
	return m.Called(ctx, orgID, customerID, consent, performedBy).Error(0)
}

func (m *MockCustomerService) List(ctx context.Context, orgID string, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	args := m.Called(ctx, orgID, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Customer), args.Get(1).(int64), args.Error(2)
}

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Import(ctx context.Context, orgID, raw string, smsConsent bool) (*model.ImportResult, error) {
	args := m.Called(ctx, orgID, raw, smsConsent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) Ensure(ctx context.Context, orgID, name string) (*model.Organization, error) {
	args := m.Called(ctx, orgID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *MockOrganizationService) Get(ctx context.Context, orgID string) (*model.Organization, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *MockOrganizationService) ReminderSettings(ctx context.Context, orgID string) (*model.ReminderSettingsView, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReminderSettingsView), args.Error(1)
}

func (m *MockOrganizationService) UpdateReminderSettings(ctx context.Context, orgID string, p model.ReminderSettingsUpdate) error {
	return m.Called(ctx, orgID, p).Error(0)
}

type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(ctx context.Context, org *model.Organization) (*model.EvaluationResult, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EvaluationResult), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	ctx.Request.Header.Set(HeaderOrgID, testOrg)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}
