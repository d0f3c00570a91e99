package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socioai/internal/authz"
	"socioai/internal/errors"
	"socioai/internal/model"
	"socioai/internal/service"
)

// MockGoalService stubs the batch operations; other methods are unused here.
type MockGoalService struct {
	service.GoalService
	mock.Mock
}

func (m *MockGoalService) CreateBatch(ctx context.Context, actor authz.Identity, in []service.GoalInput) ([]model.Goal, error) {
	args := m.Called(ctx, actor, in)
	goals, _ := args.Get(0).([]model.Goal)
	return goals, args.Error(1)
}

func (m *MockGoalService) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]service.BatchDeleteResult, error) {
	args := m.Called(ctx, actor, ids)
	results, _ := args.Get(0).([]service.BatchDeleteResult)
	return results, args.Error(1)
}

type MockIncomeService struct {
	service.MovementService[model.Income]
	mock.Mock
}

func (m *MockIncomeService) CreateBatch(ctx context.Context, actor authz.Identity, in []service.MovementInput) ([]model.Income, error) {
	args := m.Called(ctx, actor, in)
	items, _ := args.Get(0).([]model.Income)
	return items, args.Error(1)
}

func (m *MockIncomeService) DeleteBatch(ctx context.Context, actor authz.Identity, ids []uint) ([]service.BatchDeleteResult, error) {
	args := m.Called(ctx, actor, ids)
	results, _ := args.Get(0).([]service.BatchDeleteResult)
	return results, args.Error(1)
}

func (m *MockIncomeService) List(ctx context.Context, actor authz.Identity) ([]model.Income, error) {
	args := m.Called(ctx, actor)
	items, _ := args.Get(0).([]model.Income)
	return items, args.Error(1)
}

func TestCreateGoals(t *testing.T) {
	t.Run("prefixes date errors", func(t *testing.T) {
		svc := new(MockGoalService)
		c, _ := newContext(http.MethodPost, "/api/goals/batch",
			`[{"description":"a","opening_balance":"0","start_date":"2024-01-01","end_date":"2024-02-01","category_id":1},
			  {"description":"b","opening_balance":"0","start_date":"soon","end_date":"2024-02-01","category_id":1}]`)

		body := requireHTTPError(t, NewGoalHandler(svc).CreateGoals(c), http.StatusBadRequest)
		details, ok := body.Details.([]*errors.ValidationError)
		require.True(t, ok)
		require.Len(t, details, 1)
		assert.Equal(t, "goals[1].start_date", details[0].Field)
		svc.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("maps missing category", func(t *testing.T) {
		svc := new(MockGoalService)
		svc.On("CreateBatch", mock.Anything, alice, mock.Anything).Return(nil, errors.NewNotFound("category", 9999))
		c, _ := newContext(http.MethodPost, "/api/goals/batch",
			`[{"description":"a","opening_balance":"0","start_date":"2024-01-01","end_date":"2024-02-01","category_id":9999}]`)

		body := requireHTTPError(t, NewGoalHandler(svc).CreateGoals(c), http.StatusNotFound)
		assert.Equal(t, "NOT_FOUND", body.Code)
	})

	t.Run("created", func(t *testing.T) {
		svc := new(MockGoalService)
		svc.On("CreateBatch", mock.Anything, alice, mock.MatchedBy(func(in []service.GoalInput) bool {
			return len(in) == 1 && in[0].CategoryID == 3
		})).Return([]model.Goal{{ID: 7, CategoryID: 3}}, nil)
		c, rec := newContext(http.MethodPost, "/api/goals/batch",
			`[{"description":"a","opening_balance":"5","start_date":"2024-01-01","end_date":"2024-02-01","category_id":3}]`)

		require.NoError(t, NewGoalHandler(svc).CreateGoals(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		svc.AssertExpectations(t)
	})
}

func TestDeleteGoals_ReportsEveryOutcome(t *testing.T) {
	svc := new(MockGoalService)
	svc.On("DeleteBatch", mock.Anything, alice, []uint{4, 5}).Return([]service.BatchDeleteResult{
		{ID: 4, Deleted: true},
		{ID: 5, Err: errors.NewNotFound("goal", 5)},
	}, nil)

	c, rec := newContext(http.MethodDelete, "/api/goals/batch?ids=4,5", "")
	require.NoError(t, NewGoalHandler(svc).DeleteGoals(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":4,"deleted":true},
		{"id":5,"deleted":false,"error":{"error":"goal 5 not found","code":"NOT_FOUND"}}
	]`, rec.Body.String())
}

func TestIncomeBatches(t *testing.T) {
	t.Run("prefixes timestamp errors with the resource", func(t *testing.T) {
		svc := new(MockIncomeService)
		c, _ := newContext(http.MethodPost, "/api/incomes/batch",
			`[{"description":"salary","amount":"10","timestamp":"never","category_id":1}]`)

		body := requireHTTPError(t, NewIncomeHandler(svc).CreateBatch(c), http.StatusBadRequest)
		details, ok := body.Details.([]*errors.ValidationError)
		require.True(t, ok)
		require.Len(t, details, 1)
		assert.Equal(t, "incomes[0].timestamp", details[0].Field)
	})

	t.Run("create", func(t *testing.T) {
		svc := new(MockIncomeService)
		svc.On("CreateBatch", mock.Anything, alice, mock.MatchedBy(func(in []service.MovementInput) bool {
			return len(in) == 2 && in[1].Amount.Equal(decimal.RequireFromString("2.5"))
		})).Return([]model.Income{{}, {}}, nil)
		c, rec := newContext(http.MethodPost, "/api/incomes/batch",
			`[{"description":"a","amount":"1","timestamp":"2024-03-15T10:00:00","category_id":1},
			  {"description":"b","amount":"2.5","timestamp":"2024-03-15T10:00:00","category_id":1}]`)

		require.NoError(t, NewIncomeHandler(svc).CreateBatch(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockIncomeService)
		svc.On("DeleteBatch", mock.Anything, alice, []uint{8}).Return([]service.BatchDeleteResult{
			{ID: 8, Err: errors.ErrForbidden},
		}, nil)
		c, rec := newContext(http.MethodDelete, "/api/incomes/batch?ids=8", "")

		require.NoError(t, NewIncomeHandler(svc).DeleteBatch(c))
		assert.JSONEq(t, `[{"id":8,"deleted":false,"error":{"error":"access denied","code":"FORBIDDEN"}}]`, rec.Body.String())
	})

	t.Run("list is forbidden for users", func(t *testing.T) {
		svc := new(MockIncomeService)
		svc.On("List", mock.Anything, alice).Return(nil, errors.ErrForbidden)
		c, _ := newContext(http.MethodGet, "/api/incomes", "")

		requireHTTPError(t, NewIncomeHandler(svc).List(c), http.StatusForbidden)
	})
}
