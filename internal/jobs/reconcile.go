// Package jobs holds background work scheduled with cron.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"socioai/internal/service"
)

const reconcileTimeout = 5 * time.Minute

// Reconciler is the part of service.GoalLedger the job needs.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]service.BalanceDrift, error)
}

// ReconcileJob returns the function run on every tick. It only reports drift.
func ReconcileJob(ledger Reconciler, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		drifts, err := ledger.Reconcile(ctx)
		if err != nil {
			logger.Error("balance reconciliation failed", "error", err)
			return
		}
		if len(drifts) > 0 {
			logger.Warn("balance reconciliation found drift", "goals", len(drifts))
			return
		}
		logger.Info("balance reconciliation clean")
	}
}

// StartScheduler runs job on schedule until the returned cron is stopped.
func StartScheduler(schedule string, job func()) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
