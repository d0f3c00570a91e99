package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"socioai/internal/authz"
	"socioai/internal/model"
	"socioai/internal/repository"

	apperrors "socioai/internal/errors"
)

// PeriodSummary is one month of the cash-flow pivot. TotalExpense is a
// positive magnitude; NetBalance is TotalIncome minus TotalExpense.
type PeriodSummary struct {
	Period       string          `json:"period"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetBalance   decimal.Decimal `json:"net_balance"`
}

// DateRange bounds a report by whole days. Zero values are open bounds.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ReportService builds read-only aggregations over ledger entries.
type ReportService interface {
	CashFlow(ctx context.Context, actor authz.Identity, username string, rng DateRange) ([]PeriodSummary, error)
	CashFlowGlobal(ctx context.Context, actor authz.Identity) ([]PeriodSummary, error)
	CategoryTotals(ctx context.Context, actor authz.Identity, username string) ([]repository.CategoryTotal, error)
}

type reportService struct {
	store repository.Store
}

// NewReportService creates a new report service.
func NewReportService(store repository.Store) ReportService {
	return &reportService{store: store}
}

// CashFlow groups the user's entries by month, most recent month first.
func (s *reportService) CashFlow(ctx context.Context, actor authz.Identity, username string, rng DateRange) ([]PeriodSummary, error) {
	user, err := s.store.Users().FindByEmail(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}

	filter := repository.EntryFilter{UserID: user.ID}
	if !rng.From.IsZero() {
		filter.From = truncateDay(rng.From)
	}
	if !rng.To.IsZero() {
		filter.To = truncateDay(rng.To).AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return nil, apperrors.NewValidation("from", "must not be after to")
	}

	entries, err := s.store.Entries().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Summarize(entries), nil
}

// CashFlowGlobal groups every entry in the system. Administrators only.
func (s *reportService) CashFlowGlobal(ctx context.Context, actor authz.Identity) ([]PeriodSummary, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	entries, err := s.store.Entries().List(ctx, repository.EntryFilter{})
	if err != nil {
		return nil, err
	}
	return Summarize(entries), nil
}

// CategoryTotals sums goal balances per category of the user.
func (s *reportService) CategoryTotals(ctx context.Context, actor authz.Identity, username string) ([]repository.CategoryTotal, error) {
	user, err := s.store.Users().FindByEmail(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrAdmin(actor, user.ID); err != nil {
		return nil, err
	}
	return s.store.Categories().TotalsByUser(ctx, user.ID)
}

// Summarize pivots entries into monthly income and expense totals.
func Summarize(entries []model.LedgerEntry) []PeriodSummary {
	byPeriod := make(map[string]*PeriodSummary)
	for _, e := range entries {
		period := e.OccurredAt.UTC().Format("2006-01")
		sum, ok := byPeriod[period]
		if !ok {
			sum = &PeriodSummary{Period: period, TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
			byPeriod[period] = sum
		}
		if e.Type == model.EntryTypeIncome {
			sum.TotalIncome = sum.TotalIncome.Add(e.Amount)
		} else {
			sum.TotalExpense = sum.TotalExpense.Add(e.Amount.Abs())
		}
	}

	out := make([]PeriodSummary, 0, len(byPeriod))
	for _, sum := range byPeriod {
		sum.NetBalance = sum.TotalIncome.Sub(sum.TotalExpense)
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
