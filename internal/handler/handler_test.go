package handler

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socioai/internal/authz"
	"socioai/internal/errors"
	"socioai/internal/model"
	"socioai/internal/repository"
	"socioai/internal/service"
)

type testValidator struct{ v *validator.Validate }

func (tv testValidator) Validate(i interface{}) error { return tv.v.Struct(i) }

var alice = authz.Identity{UserID: uuid.New(), Email: "alice@example.com", Role: model.RoleUser}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	e.Validator = testValidator{v: v}

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(IdentityKey, alice)
	return c, rec
}

func requireHTTPError(t *testing.T, err error, status int) errors.ErrorResponse {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, stderrors.As(err, &he), "expected echo.HTTPError, got %v", err)
	assert.Equal(t, status, he.Code)
	body, ok := he.Message.(errors.ErrorResponse)
	require.True(t, ok)
	return body
}

type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) Create(ctx context.Context, actor authz.Identity, in service.EntryInput) (*model.LedgerEntry, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockEntryService) CreateBatch(ctx context.Context, actor authz.Identity, in []service.EntryInput) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, actor, in)
	entries, _ := args.Get(0).([]model.LedgerEntry)
	return entries, args.Error(1)
}

func (m *MockEntryService) Update(ctx context.Context, actor authz.Identity, id uint, in service.EntryInput) (*model.LedgerEntry, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockEntryService) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockEntryService) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]service.BatchDeleteResult, error) {
	args := m.Called(ctx, actor, ids)
	results, _ := args.Get(0).([]service.BatchDeleteResult)
	return results, args.Error(1)
}

func (m *MockEntryService) GetByID(ctx context.Context, actor authz.Identity, id uint) (*model.LedgerEntry, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockEntryService) ListByUsername(ctx context.Context, actor authz.Identity, username string) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, actor, username)
	entries, _ := args.Get(0).([]model.LedgerEntry)
	return entries, args.Error(1)
}

func (m *MockEntryService) ListByGoal(ctx context.Context, actor authz.Identity, goalID uint) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, actor, goalID)
	entries, _ := args.Get(0).([]model.LedgerEntry)
	return entries, args.Error(1)
}

func (m *MockEntryService) ListAll(ctx context.Context, actor authz.Identity) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, actor)
	entries, _ := args.Get(0).([]model.LedgerEntry)
	return entries, args.Error(1)
}

func TestCreateEntry(t *testing.T) {
	t.Run("parses the request and returns 201", func(t *testing.T) {
		svc := new(MockEntryService)
		want := service.EntryInput{
			Description: "salary",
			Amount:      decimal.RequireFromString("1200.50"),
			OccurredAt:  time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			GoalID:      7,
		}
		svc.On("Create", mock.Anything, alice, mock.MatchedBy(func(in service.EntryInput) bool {
			return in.Description == want.Description && in.Amount.Equal(want.Amount) &&
				in.OccurredAt.Equal(want.OccurredAt) && in.GoalID == want.GoalID && in.Type == ""
		})).Return(&model.LedgerEntry{ID: 1, Amount: want.Amount, Type: model.EntryTypeIncome, GoalID: 7}, nil)

		c, rec := newContext(http.MethodPost, "/api/entries",
			`{"description":"salary","amount":"1200.50","timestamp":"2024-03-15T10:00:00","goal_id":7}`)
		require.NoError(t, NewEntryHandler(svc).CreateEntry(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"type":"INCOME"`)
		svc.AssertExpectations(t)
	})

	t.Run("rejects a malformed timestamp before calling the service", func(t *testing.T) {
		svc := new(MockEntryService)
		c, _ := newContext(http.MethodPost, "/api/entries",
			`{"description":"salary","amount":"10","timestamp":"15/03/2024","goal_id":7}`)

		body := requireHTTPError(t, NewEntryHandler(svc).CreateEntry(c), http.StatusBadRequest)
		assert.Equal(t, "VALIDATION_ERROR", body.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a blank description", func(t *testing.T) {
		svc := new(MockEntryService)
		c, _ := newContext(http.MethodPost, "/api/entries",
			`{"description":"   ","amount":"10","timestamp":"2024-03-15T10:00:00","goal_id":7}`)

		requireHTTPError(t, NewEntryHandler(svc).CreateEntry(c), http.StatusBadRequest)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("maps service errors", func(t *testing.T) {
		svc := new(MockEntryService)
		svc.On("Create", mock.Anything, alice, mock.Anything).
			Return(nil, errors.NewNotFound("goal", 7))

		c, _ := newContext(http.MethodPost, "/api/entries",
			`{"description":"x","amount":"10","timestamp":"2024-03-15T10:00:00","goal_id":7}`)

		body := requireHTTPError(t, NewEntryHandler(svc).CreateEntry(c), http.StatusNotFound)
		assert.Equal(t, "NOT_FOUND", body.Code)
	})
}

func TestCreateEntries_PrefixesFieldErrors(t *testing.T) {
	svc := new(MockEntryService)
	c, _ := newContext(http.MethodPost, "/api/entries/batch",
		`[{"description":"a","amount":"1","timestamp":"2024-03-15T10:00:00","goal_id":1},
		  {"description":"b","amount":"2","timestamp":"yesterday","goal_id":1}]`)

	body := requireHTTPError(t, NewEntryHandler(svc).CreateEntries(c), http.StatusBadRequest)
	details, ok := body.Details.([]*errors.ValidationError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "entries[1].timestamp", details[0].Field)
	svc.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteEntries_ReportsEveryOutcome(t *testing.T) {
	svc := new(MockEntryService)
	svc.On("DeleteBatch", mock.Anything, alice, []uint{1, 2, 3}).Return([]service.BatchDeleteResult{
		{ID: 1, Deleted: true},
		{ID: 2, Err: errors.NewNotFound("entry", 2)},
		{ID: 3, Err: errors.ErrForbidden},
	}, nil)

	c, rec := newContext(http.MethodDelete, "/api/entries/batch?ids=1,2,3", "")
	require.NoError(t, NewEntryHandler(svc).DeleteEntries(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":1,"deleted":true},
		{"id":2,"deleted":false,"error":{"error":"entry 2 not found","code":"NOT_FOUND"}},
		{"id":3,"deleted":false,"error":{"error":"access denied","code":"FORBIDDEN"}}
	]`, rec.Body.String())
}

func TestDeleteEntries_RequiresIDs(t *testing.T) {
	svc := new(MockEntryService)
	c, _ := newContext(http.MethodDelete, "/api/entries/batch?ids=1,x", "")

	body := requireHTTPError(t, NewEntryHandler(svc).DeleteEntries(c), http.StatusBadRequest)
	assert.Equal(t, "INVALID_ID", body.Code)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) CashFlow(ctx context.Context, actor authz.Identity, username string, rng service.DateRange) ([]service.PeriodSummary, error) {
	args := m.Called(ctx, actor, username, rng)
	rows, _ := args.Get(0).([]service.PeriodSummary)
	return rows, args.Error(1)
}

func (m *MockReportService) CashFlowGlobal(ctx context.Context, actor authz.Identity) ([]service.PeriodSummary, error) {
	args := m.Called(ctx, actor)
	rows, _ := args.Get(0).([]service.PeriodSummary)
	return rows, args.Error(1)
}

func (m *MockReportService) CategoryTotals(ctx context.Context, actor authz.Identity, username string) ([]repository.CategoryTotal, error) {
	args := m.Called(ctx, actor, username)
	rows, _ := args.Get(0).([]repository.CategoryTotal)
	return rows, args.Error(1)
}

func TestCashFlow_PassesDateRange(t *testing.T) {
	svc := new(MockReportService)
	rng := service.DateRange{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	svc.On("CashFlow", mock.Anything, alice, "alice@example.com", rng).Return([]service.PeriodSummary{{
		Period:       "2024-03",
		TotalIncome:  decimal.RequireFromString("100"),
		TotalExpense: decimal.RequireFromString("40"),
		NetBalance:   decimal.RequireFromString("60"),
	}}, nil)

	c, rec := newContext(http.MethodGet, "/api/reports/cash-flow/alice@example.com?from=2024-01-01&to=2024-03-31", "")
	c.SetParamNames("username")
	c.SetParamValues("alice@example.com")
	require.NoError(t, NewReportHandler(svc).CashFlow(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"period":"2024-03","total_income":"100","total_expense":"40","net_balance":"60"}]`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestExportCashFlow_RejectsUnknownFormat(t *testing.T) {
	svc := new(MockReportService)
	c, _ := newContext(http.MethodGet, "/api/reports/cash-flow/alice@example.com/export?format=pdf", "")
	c.SetParamNames("username")
	c.SetParamValues("alice@example.com")

	body := requireHTTPError(t, NewReportHandler(svc).ExportCashFlow(c), http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	svc.AssertNotCalled(t, "CashFlow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/entries", "")
	c.Set(IdentityKey, nil)

	requireHTTPError(t, NewEntryHandler(new(MockEntryService)).ListEntries(c), http.StatusUnauthorized)
}
