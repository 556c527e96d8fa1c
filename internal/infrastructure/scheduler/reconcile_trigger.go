package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	appintegration "github.com/storepos/backend/internal/application/integration"
	"go.uber.org/zap"
)

// Reconciler runs one pass over the unsynced orders
type Reconciler interface {
	ReconcileAll(ctx context.Context) (*appintegration.ReconcileReport, error)
}

// ---------------------------------------------------------------------------
// ReconcileTriggerConfig
// ---------------------------------------------------------------------------

// ReconcileTriggerConfig holds configuration for the reconcile trigger
type ReconcileTriggerConfig struct {
	// Interval is the time between scheduled passes
	Interval time.Duration

	// PassTimeout bounds a single pass; a pass cut short resumes on the next tick
	PassTimeout time.Duration

	// RunOnStart runs a pass as soon as the trigger starts
	RunOnStart bool
}

// DefaultReconcileTriggerConfig returns default configuration
func DefaultReconcileTriggerConfig() ReconcileTriggerConfig {
	return ReconcileTriggerConfig{
		Interval:    5 * time.Minute,
		PassTimeout: 2 * time.Minute,
		RunOnStart:  true,
	}
}

// Validate validates the configuration
func (c ReconcileTriggerConfig) Validate() error {
	if c.Interval <= 0 || c.PassTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// ReconcileTrigger
// ---------------------------------------------------------------------------

// ReconcileTrigger pushes unsynced orders on a fixed interval and on demand
type ReconcileTrigger struct {
	config     ReconcileTriggerConfig
	reconciler Reconciler
	logger     *zap.Logger

	kick chan struct{}
	last atomic.Pointer[appintegration.ReconcileReport]

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReconcileTrigger creates a new reconcile trigger
func NewReconcileTrigger(config ReconcileTriggerConfig, reconciler Reconciler, logger *zap.Logger) (*ReconcileTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileTrigger{
		config:     config,
		reconciler: reconciler,
		logger:     logger,
		kick:       make(chan struct{}, 1),
	}, nil
}

// Start starts the trigger loop
func (t *ReconcileTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Reconcile trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.Duration("pass_timeout", t.config.PassTimeout),
	)
	return nil
}

// Stop stops the loop and waits for an in-flight pass, bounded by ctx
func (t *ReconcileTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Reconcile trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (t *ReconcileTrigger) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isRunning
}

// TriggerNow queues a pass without waiting for it
func (t *ReconcileTrigger) TriggerNow() error {
	if !t.IsRunning() {
		return ErrTriggerNotRunning
	}
	select {
	case t.kick <- struct{}{}:
		return nil
	default:
		return ErrPassQueued
	}
}

// LastReport returns the report of the latest completed pass, or nil
func (t *ReconcileTrigger) LastReport() *appintegration.ReconcileReport {
	return t.last.Load()
}

func (t *ReconcileTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	if t.config.RunOnStart {
		t.runPass(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runPass(ctx)
		case <-t.kick:
			t.runPass(ctx)
		}
	}
}

func (t *ReconcileTrigger) runPass(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, t.config.PassTimeout)
	defer cancel()

	report, err := t.reconciler.ReconcileAll(passCtx)
	if err != nil {
		if errors.Is(err, appintegration.ErrReconcileInProgress) {
			t.logger.Debug("Skipping reconcile tick, a pass is already running")
			return
		}
		t.logger.Error("Reconcile pass failed", zap.Error(err))
		return
	}
	t.last.Store(report)
	if report.Cancelled && ctx.Err() == nil {
		t.logger.Warn("Reconcile pass hit its timeout",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("remaining", report.Total-report.Succeeded-report.Failed),
		)
	}
}
