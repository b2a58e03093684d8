package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type rootRepairer interface {
	RepairRoots(ctx context.Context) (int64, error)
}

type reconcileObserver interface {
	ObserveRootRepairs(n int64)
}

// RootReconciler periodically recomputes every hierarchy's root pointer from
// its parentless node.
type RootReconciler struct {
	repo      rootRepairer
	metrics   reconcileObserver
	logger    *zap.Logger
	timeout   time.Duration
	scheduler gocron.Scheduler
}

// NewRootReconciler creates a reconciler. metrics may be nil.
func NewRootReconciler(repo rootRepairer, metrics reconcileObserver, logger *zap.Logger) *RootReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RootReconciler{repo: repo, metrics: metrics, logger: logger.Named("reconciler"), timeout: time.Minute}
}

// RunOnce repairs drifted root pointers and returns how many were fixed.
func (r *RootReconciler) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	repaired, err := r.repo.RepairRoots(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile hierarchy roots: %w", err)
	}
	if r.metrics != nil {
		r.metrics.ObserveRootRepairs(repaired)
	}
	if repaired > 0 {
		r.logger.Warn("hierarchy root pointers repaired", zap.Int64("count", repaired))
	}
	return repaired, nil
}

// Start schedules RunOnce on the cron expression.
func (r *RootReconciler) Start(ctx context.Context, cronExpr string) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) {
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("root reconciliation failed", zap.Error(err))
			}
		}, ctx),
		gocron.WithName("root-reconciler"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("schedule root reconciler: %w", err)
	}
	s.Start()
	r.scheduler = s
	r.logger.Info("root reconciler scheduled", zap.String("cron", cronExpr))
	return nil
}

// Stop shuts the scheduler down, waiting for a running pass to finish.
func (r *RootReconciler) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}
