package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"socioai/internal/errors"
	"socioai/internal/model"
)

// MockOwnerResolver is a mock implementation of OwnerResolver.
type MockOwnerResolver struct {
	mock.Mock
}

func (m *MockOwnerResolver) OwnerOfCategory(ctx context.Context, id uint) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOwnerResolver) OwnerOfGoal(ctx context.Context, id uint) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOwnerResolver) OwnerOfEntry(ctx context.Context, id uint) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOwnerResolver) OwnerOfIncome(ctx context.Context, id uint) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOwnerResolver) OwnerOfExpense(ctx context.Context, id uint) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func TestGate_Check(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name         string
		actor        Identity
		resource     ResourceType
		action       Action
		setupMock    func(*MockOwnerResolver)
		wantDecision Decision
		wantNotFound bool
	}{
		{
			name:     "owner may write goal",
			actor:    Identity{UserID: owner, Role: model.RoleUser},
			resource: ResourceGoal,
			action:   ActionWrite,
			setupMock: func(m *MockOwnerResolver) {
				m.On("OwnerOfGoal", mock.Anything, uint(1)).Return(owner, nil)
			},
			wantDecision: Allow,
		},
		{
			name:     "stranger may not delete entry",
			actor:    Identity{UserID: stranger, Role: model.RoleUser},
			resource: ResourceLedgerEntry,
			action:   ActionDelete,
			setupMock: func(m *MockOwnerResolver) {
				m.On("OwnerOfEntry", mock.Anything, uint(1)).Return(owner, nil)
			},
			wantDecision: Deny,
		},
		{
			name:     "stranger may not read category",
			actor:    Identity{UserID: stranger, Role: model.RoleUser},
			resource: ResourceCategory,
			action:   ActionRead,
			setupMock: func(m *MockOwnerResolver) {
				m.On("OwnerOfCategory", mock.Anything, uint(1)).Return(owner, nil)
			},
			wantDecision: Deny,
		},
		{
			name:         "admin short-circuits without lookup",
			actor:        Identity{UserID: stranger, Role: model.RoleAdmin},
			resource:     ResourceGoal,
			action:       ActionDelete,
			setupMock:    func(m *MockOwnerResolver) {},
			wantDecision: Allow,
		},
		{
			name:         "unknown resource type is denied",
			actor:        Identity{UserID: owner, Role: model.RoleUser},
			resource:     ResourceType("budget"),
			action:       ActionRead,
			setupMock:    func(m *MockOwnerResolver) {},
			wantDecision: Deny,
		},
		{
			name:         "anonymous identity is denied",
			actor:        Identity{},
			resource:     ResourceGoal,
			action:       ActionRead,
			setupMock:    func(m *MockOwnerResolver) {},
			wantDecision: Deny,
		},
		{
			name:     "missing resource is not found, not forbidden",
			actor:    Identity{UserID: owner, Role: model.RoleUser},
			resource: ResourceGoal,
			action:   ActionWrite,
			setupMock: func(m *MockOwnerResolver) {
				m.On("OwnerOfGoal", mock.Anything, uint(1)).Return(uuid.Nil, errors.NewNotFound("goal", 1))
			},
			wantDecision: Deny,
			wantNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockOwnerResolver)
			tt.setupMock(resolver)
			gate := NewGate(resolver, nil)

			decision, err := gate.Check(context.Background(), tt.actor, tt.resource, 1, tt.action)

			assert.Equal(t, tt.wantDecision, decision)
			if tt.wantNotFound {
				assert.True(t, errors.IsNotFound(err))
			} else {
				assert.NoError(t, err)
			}
			resolver.AssertExpectations(t)
		})
	}
}

func TestGate_Authorize(t *testing.T) {
	owner := uuid.New()
	resolver := new(MockOwnerResolver)
	resolver.On("OwnerOfIncome", mock.Anything, uint(4)).Return(owner, nil)
	resolver.On("OwnerOfExpense", mock.Anything, uint(5)).Return(uuid.Nil, errors.NewNotFound("expense", 5))
	gate := NewGate(resolver, nil)
	ctx := context.Background()

	assert.NoError(t, gate.Authorize(ctx, Identity{UserID: owner}, ResourceIncome, 4, ActionWrite))

	err := gate.Authorize(ctx, Identity{UserID: uuid.New()}, ResourceIncome, 4, ActionWrite)
	assert.True(t, errors.IsForbidden(err))

	err = gate.Authorize(ctx, Identity{UserID: owner}, ResourceExpense, 5, ActionDelete)
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsForbidden(err))
}

func TestRequireSelfOrAdmin(t *testing.T) {
	me := uuid.New()

	assert.NoError(t, RequireSelfOrAdmin(Identity{UserID: me}, me))
	assert.NoError(t, RequireSelfOrAdmin(Identity{UserID: uuid.New(), Role: model.RoleAdmin}, me))
	assert.ErrorIs(t, RequireSelfOrAdmin(Identity{UserID: uuid.New()}, me), errors.ErrForbidden)
	assert.ErrorIs(t, RequireSelfOrAdmin(Identity{}, uuid.Nil), errors.ErrForbidden)
	assert.ErrorIs(t, RequireAdmin(Identity{UserID: me}), errors.ErrForbidden)
}
