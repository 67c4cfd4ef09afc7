package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/services"
	"finledger/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

const (
	testAccountID = "01900000-0000-7000-8000-000000000001"
	testOtherID   = "01900000-0000-7000-8000-000000000002"
	testRecordID  = "01900000-0000-7000-8000-0000000000aa"
)

// --- request helpers ---

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body %q: %v", rec.Body.String(), err)
	}
	return result
}

func assertErrorCode(t *testing.T, body map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", body)
	}
	if got, _ := errObj["code"].(string); got != code {
		t.Errorf("error code = %q, want %q", got, code)
	}
}

// --- mock audit service ---

type auditEntry struct {
	action     string
	resourceID string
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(action, _, resourceID, _ string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{action: action, resourceID: resourceID})
}

func (m *mockAuditService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.action
	}
	return out
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- mock account service ---

type mockAccountService struct {
	createAccountFn func(ctx context.Context, input services.CreateAccountInput) (*models.Account, error)
	getAccountFn    func(ctx context.Context, id string) (*models.Account, error)
	listAccountsFn  func(ctx context.Context, filter services.AccountFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	updateAccountFn func(ctx context.Context, id string, fields services.AccountUpdateFields) (*models.Account, error)
	setBalanceFn    func(ctx context.Context, id string, balance decimal.Decimal, at time.Time) (*models.Account, error)
	deleteAccountFn func(ctx context.Context, id string) error
}

func (m *mockAccountService) CreateAccount(ctx context.Context, input services.CreateAccountInput) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(ctx, input)
	}
	return &models.Account{Base: models.Base{ID: testAccountID}}, nil
}

func (m *mockAccountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(ctx, id)
	}
	return &models.Account{Base: models.Base{ID: id}}, nil
}

func (m *mockAccountService) ListAccounts(ctx context.Context, filter services.AccountFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn(ctx, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Account{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockAccountService) UpdateAccount(ctx context.Context, id string, fields services.AccountUpdateFields) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(ctx, id, fields)
	}
	return &models.Account{Base: models.Base{ID: id}}, nil
}

func (m *mockAccountService) SetBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) (*models.Account, error) {
	if m.setBalanceFn != nil {
		return m.setBalanceFn(ctx, id, balance, at)
	}
	return &models.Account{Base: models.Base{ID: id}, Balance: balance}, nil
}

func (m *mockAccountService) DeleteAccount(ctx context.Context, id string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, id)
	}
	return nil
}

var _ services.AccountServicer = (*mockAccountService)(nil)

// --- mock ledger service ---

type mockLedgerService struct {
	recordTransactionFn func(ctx context.Context, input services.RecordTransactionInput) (*services.Movement, error)
	updateTransactionFn func(ctx context.Context, id string, fields services.TransactionUpdateFields) (*models.Transaction, error)
	deleteTransactionFn func(ctx context.Context, id string) error
	createTransferFn    func(ctx context.Context, input services.CreateTransferInput) (*services.TransferResult, error)
	deleteTransferFn    func(ctx context.Context, id string) error
	deleteInvestmentFn  func(ctx context.Context, id string) error
	reconcileFn         func(ctx context.Context, accountID string, fix bool) (*services.Reconciliation, error)
}

func (m *mockLedgerService) RecordTransaction(ctx context.Context, input services.RecordTransactionInput) (*services.Movement, error) {
	if m.recordTransactionFn != nil {
		return m.recordTransactionFn(ctx, input)
	}
	return &services.Movement{Transaction: &models.Transaction{Base: models.Base{ID: testRecordID}}}, nil
}

func (m *mockLedgerService) UpdateTransaction(ctx context.Context, id string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(ctx, id, fields)
	}
	return &models.Transaction{Base: models.Base{ID: id}}, nil
}

func (m *mockLedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(ctx, id)
	}
	return nil
}

func (m *mockLedgerService) CreateTransfer(ctx context.Context, input services.CreateTransferInput) (*services.TransferResult, error) {
	if m.createTransferFn != nil {
		return m.createTransferFn(ctx, input)
	}
	return &services.TransferResult{Transfer: &models.Transfer{Base: models.Base{ID: testRecordID}}}, nil
}

func (m *mockLedgerService) DeleteTransfer(ctx context.Context, id string) error {
	if m.deleteTransferFn != nil {
		return m.deleteTransferFn(ctx, id)
	}
	return nil
}

func (m *mockLedgerService) DeleteInvestmentTransaction(ctx context.Context, id string) error {
	if m.deleteInvestmentFn != nil {
		return m.deleteInvestmentFn(ctx, id)
	}
	return nil
}

func (m *mockLedgerService) ReconcileBalance(ctx context.Context, accountID string, fix bool) (*services.Reconciliation, error) {
	if m.reconcileFn != nil {
		return m.reconcileFn(ctx, accountID, fix)
	}
	return &services.Reconciliation{AccountID: accountID}, nil
}

func (m *mockLedgerService) RecordTransactionWithDB(ctx context.Context, _ *gorm.DB, input services.RecordTransactionInput) (*services.Movement, error) {
	return m.RecordTransaction(ctx, input)
}

func (m *mockLedgerService) CreateTransferWithDB(ctx context.Context, _ *gorm.DB, input services.CreateTransferInput) (*services.TransferResult, error) {
	return m.CreateTransfer(ctx, input)
}

var _ services.LedgerServicer = (*mockLedgerService)(nil)

// --- mock transaction service ---

type mockTransactionService struct {
	getTransactionFn   func(ctx context.Context, id string) (*models.Transaction, error)
	listTransactionsFn func(ctx context.Context, filter services.TransactionFilter, page pagination.PageRequest, sort pagination.SortRequest) (*pagination.PageResponse[models.Transaction], error)
	findByPatternFn    func(ctx context.Context, accountID, pattern string) ([]models.Transaction, error)
}

func (m *mockTransactionService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(ctx, id)
	}
	return &models.Transaction{Base: models.Base{ID: id}}, nil
}

func (m *mockTransactionService) ListTransactions(ctx context.Context, filter services.TransactionFilter, page pagination.PageRequest, sort pagination.SortRequest) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(ctx, filter, page, sort)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) FindByAccountAndDatePattern(ctx context.Context, accountID, pattern string) ([]models.Transaction, error) {
	if m.findByPatternFn != nil {
		return m.findByPatternFn(ctx, accountID, pattern)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) FindByDateRange(context.Context, time.Time, time.Time) ([]models.Transaction, error) {
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) FindActiveOrRecurring(context.Context, time.Time) ([]models.Transaction, error) {
	return []models.Transaction{}, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

// --- mock investment service ---

type mockInvestmentService struct {
	getInvestmentFn   func(ctx context.Context, id string) (*models.InvestmentTransaction, error)
	listInvestmentsFn func(ctx context.Context, accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.InvestmentTransaction], error)
	getTransferFn     func(ctx context.Context, id string) (*models.Transfer, error)
}

func (m *mockInvestmentService) GetInvestmentTransaction(ctx context.Context, id string) (*models.InvestmentTransaction, error) {
	if m.getInvestmentFn != nil {
		return m.getInvestmentFn(ctx, id)
	}
	return &models.InvestmentTransaction{Base: models.Base{ID: id}}, nil
}

func (m *mockInvestmentService) ListInvestmentTransactions(ctx context.Context, accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.InvestmentTransaction], error) {
	if m.listInvestmentsFn != nil {
		return m.listInvestmentsFn(ctx, accountID, page)
	}
	resp := pagination.NewPageResponse([]models.InvestmentTransaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockInvestmentService) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	if m.getTransferFn != nil {
		return m.getTransferFn(ctx, id)
	}
	return &models.Transfer{Base: models.Base{ID: id}}, nil
}

var _ services.InvestmentServicer = (*mockInvestmentService)(nil)

// --- mock schedule service ---

type mockScheduleService struct {
	createScheduleFn func(ctx context.Context, input services.ScheduleInput) (*models.RecurringSchedule, error)
	getScheduleFn    func(ctx context.Context, id string) (*models.RecurringSchedule, error)
	listSchedulesFn  func(ctx context.Context, filter services.ScheduleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringSchedule], error)
	updateScheduleFn func(ctx context.Context, id string, fields services.ScheduleUpdateFields) (*models.RecurringSchedule, error)
	deleteScheduleFn func(ctx context.Context, id string) error
}

func (m *mockScheduleService) CreateSchedule(ctx context.Context, input services.ScheduleInput) (*models.RecurringSchedule, error) {
	if m.createScheduleFn != nil {
		return m.createScheduleFn(ctx, input)
	}
	return &models.RecurringSchedule{Base: models.Base{ID: testRecordID}}, nil
}

func (m *mockScheduleService) GetSchedule(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	if m.getScheduleFn != nil {
		return m.getScheduleFn(ctx, id)
	}
	return &models.RecurringSchedule{Base: models.Base{ID: id}}, nil
}

func (m *mockScheduleService) ListSchedules(ctx context.Context, filter services.ScheduleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringSchedule], error) {
	if m.listSchedulesFn != nil {
		return m.listSchedulesFn(ctx, filter, page)
	}
	resp := pagination.NewPageResponse([]models.RecurringSchedule{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockScheduleService) FindActive(context.Context) ([]models.RecurringSchedule, error) {
	return []models.RecurringSchedule{}, nil
}

func (m *mockScheduleService) UpdateSchedule(ctx context.Context, id string, fields services.ScheduleUpdateFields) (*models.RecurringSchedule, error) {
	if m.updateScheduleFn != nil {
		return m.updateScheduleFn(ctx, id, fields)
	}
	return &models.RecurringSchedule{Base: models.Base{ID: id}}, nil
}

func (m *mockScheduleService) DeleteSchedule(ctx context.Context, id string) error {
	if m.deleteScheduleFn != nil {
		return m.deleteScheduleFn(ctx, id)
	}
	return nil
}

var _ services.ScheduleServicer = (*mockScheduleService)(nil)

// --- mock estimate service and recurring processor ---

type mockEstimateService struct {
	estimateFn func(ctx context.Context, req services.EstimateRequest) (*services.Estimate, error)
}

func (m *mockEstimateService) Estimate(ctx context.Context, req services.EstimateRequest) (*services.Estimate, error) {
	if m.estimateFn != nil {
		return m.estimateFn(ctx, req)
	}
	return &services.Estimate{Categories: []services.CategoryEstimate{}}, nil
}

var _ services.EstimateServicer = (*mockEstimateService)(nil)

type mockRecurringProcessor struct {
	processDueFn func(ctx context.Context, today time.Time) (*services.ProcessResult, error)
}

func (m *mockRecurringProcessor) ProcessDue(ctx context.Context, today time.Time) (*services.ProcessResult, error) {
	if m.processDueFn != nil {
		return m.processDueFn(ctx, today)
	}
	return &services.ProcessResult{Failures: []services.ScheduleFailure{}}, nil
}

var _ services.RecurringProcessor = (*mockRecurringProcessor)(nil)
