package worker

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/sla"
)

const reconcileLockKey = "lock:sla-reconcile"

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Reconcile(ctx context.Context) (sla.ReconcileResult, error)
}

// ReconcileWorker runs reconciliation on a fixed interval. When a lock
// client is configured only one replica reconciles at a time; without Redis
// every replica runs, which is safe because records are single-row upserts.
type ReconcileWorker struct {
	reconciler Reconciler
	locker     *redislock.Client
	interval   time.Duration
	lockTTL    time.Duration
	logger     *zap.Logger
}

// NewReconcileWorker creates the worker. locker may be nil.
func NewReconcileWorker(reconciler Reconciler, locker *redislock.Client, interval, lockTTL time.Duration, logger *zap.Logger) *ReconcileWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileWorker{
		reconciler: reconciler,
		locker:     locker,
		interval:   interval,
		lockTTL:    lockTTL,
		logger:     logger,
	}
}

// Run reconciles immediately, then every interval until ctx is done.
func (w *ReconcileWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single locked pass. It reports whether a pass ran.
func (w *ReconcileWorker) RunOnce(ctx context.Context) bool {
	lock, err := w.obtain(ctx)
	if errors.Is(err, redislock.ErrNotObtained) {
		w.logger.Debug("sla reconciliation running elsewhere; skipping tick")
		return false
	}
	if err != nil {
		w.logger.Warn("could not obtain reconciliation lock; proceeding without it", zap.Error(err))
	}
	if lock != nil {
		defer func() {
			if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
				w.logger.Warn("release reconciliation lock", zap.Error(releaseErr))
			}
		}()
	}

	passCtx, cancel := context.WithTimeout(ctx, w.lockTTL)
	defer cancel()
	result, err := w.reconciler.Reconcile(passCtx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		w.logger.Info("sla reconciliation interrupted; will resume next tick",
			zap.Int("created", result.Created),
			zap.Int("evaluated", result.Evaluated))
	default:
		w.logger.Error("sla reconciliation failed", zap.Error(err))
	}
	return true
}

func (w *ReconcileWorker) obtain(ctx context.Context) (*redislock.Lock, error) {
	if w.locker == nil {
		return nil, nil
	}
	return w.locker.Obtain(ctx, reconcileLockKey, w.lockTTL, nil)
}
