package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socioai/internal/authz"
	"socioai/internal/model"
	"socioai/internal/repository"
	"socioai/internal/testutil"
)

var errInjected = errors.New("injected storage failure")

type fixture struct {
	store  repository.Store
	gate   *authz.Gate
	ledger GoalLedger
	roles  map[string]*model.Role
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.OpenSQLite(t))
}

// newFixtureOn seeds roles into an already migrated database.
func newFixtureOn(t *testing.T, gormDB *gorm.DB) *fixture {
	t.Helper()
	store := repository.NewStore(gormDB)
	f := &fixture{
		store:  store,
		gate:   authz.NewGate(store.Owners(), nil),
		ledger: NewGoalLedger(store, nil),
		roles:  map[string]*model.Role{},
	}
	for _, name := range []string{model.RoleUser, model.RoleAdmin} {
		role := &model.Role{Description: name}
		require.NoError(t, store.Roles().Create(context.Background(), role))
		f.roles[name] = role
	}
	return f
}

func (f *fixture) user(t *testing.T, email, role string) authz.Identity {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", RoleID: f.roles[role].ID}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return authz.Identity{UserID: u.ID, Email: u.Email, Role: role}
}

func (f *fixture) category(t *testing.T, owner authz.Identity, name string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, UserID: owner.UserID}
	require.NoError(t, f.store.Categories().Create(context.Background(), c))
	return c
}

func (f *fixture) goal(t *testing.T, category *model.Category, opening string) *model.Goal {
	t.Helper()
	g := &model.Goal{
		Description:    "goal",
		OpeningBalance: decimal.RequireFromString(opening),
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		CategoryID:     category.ID,
	}
	require.NoError(t, f.store.Goals().Create(context.Background(), g))
	return g
}

func (f *fixture) assertBalance(t *testing.T, goalID uint, want string) {
	t.Helper()
	got, err := f.ledger.Balance(context.Background(), goalID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString(want).Equal(got), "goal %d balance: want %s, got %s", goalID, want, got)
}

func (f *fixture) entryCount(t *testing.T) int {
	t.Helper()
	entries, err := f.store.Entries().List(context.Background(), repository.EntryFilter{})
	require.NoError(t, err)
	return len(entries)
}

func entryAt(desc, amount string, goalID uint, at time.Time) EntryInput {
	return EntryInput{
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		OccurredAt:  at,
		GoalID:      goalID,
	}
}

var day = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// faultyStore injects storage failures into the repositories reached
// through a transaction.
type faultyStore struct {
	repository.Store
	balanceFailsOn int
	entryWriteFail bool
	calls          *int
}

func (s *faultyStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, &faultyStore{
			Store:          tx,
			balanceFailsOn: s.balanceFailsOn,
			entryWriteFail: s.entryWriteFail,
			calls:          s.calls,
		})
	})
}

func (s *faultyStore) Goals() repository.GoalRepository {
	return &faultyGoals{GoalRepository: s.Store.Goals(), store: s}
}

func (s *faultyStore) Entries() repository.EntryRepository {
	return &faultyEntries{EntryRepository: s.Store.Entries(), fail: s.entryWriteFail}
}

type faultyGoals struct {
	repository.GoalRepository
	store *faultyStore
}

func (g *faultyGoals) AddToBalance(ctx context.Context, id uint, delta decimal.Decimal) error {
	*g.store.calls++
	if g.store.balanceFailsOn > 0 && *g.store.calls == g.store.balanceFailsOn {
		return errInjected
	}
	return g.GoalRepository.AddToBalance(ctx, id, delta)
}

type faultyEntries struct {
	repository.EntryRepository
	fail bool
}

func (e *faultyEntries) Create(ctx context.Context, entry *model.LedgerEntry) error {
	if e.fail {
		return errInjected
	}
	return e.EntryRepository.Create(ctx, entry)
}

func (e *faultyEntries) Update(ctx context.Context, entry *model.LedgerEntry) error {
	if e.fail {
		return errInjected
	}
	return e.EntryRepository.Update(ctx, entry)
}

func (e *faultyEntries) Delete(ctx context.Context, id uint) error {
	if e.fail {
		return errInjected
	}
	return e.EntryRepository.Delete(ctx, id)
}

// faulty builds an entry service on top of a failure-injecting store.
func (f *fixture) faulty(balanceFailsOn int, entryWriteFail bool) EntryService {
	calls := 0
	store := &faultyStore{Store: f.store, balanceFailsOn: balanceFailsOn, entryWriteFail: entryWriteFail, calls: &calls}
	return NewEntryService(store, NewGoalLedger(store, nil), f.gate)
}
