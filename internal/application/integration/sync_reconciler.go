package integration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storepos/backend/internal/domain/integration"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// CodePushInProgress marks an order whose push is already claimed elsewhere
const CodePushInProgress = "PUSH_IN_PROGRESS"

var (
	// ErrPushInProgress is returned when another push holds the order's claim
	ErrPushInProgress = shared.NewDomainError(CodePushInProgress, "order push already in progress")
	// ErrReconcileInProgress is returned when a reconciliation pass is already running
	ErrReconcileInProgress = shared.NewDomainError(CodePushInProgress, "reconciliation already in progress")
)

const claimKeyPrefix = "order:"

// OrderBook is the slice of the order ledger the reconciler needs
type OrderBook interface {
	Get(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error)
	ListUnsynced(ctx context.Context) ([]trade.PosOrder, error)
	MarkSynced(ctx context.Context, id uuid.UUID, upstreamOrderID int64) (bool, error)
	RecordSyncFailure(ctx context.Context, id uuid.UUID, cause error) error
}

// SyncRecorder observes push outcomes
type SyncRecorder interface {
	RecordSyncResult(ctx context.Context, success bool, errorCode string)
}

// SyncResult is the outcome of pushing one order
type SyncResult struct {
	OrderID         uuid.UUID
	OrderNumber     string
	Success         bool
	UpstreamOrderID int64
	Err             error
}

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	Results    []SyncResult
	Total      int
	Succeeded  int
	Failed     int
	Cancelled  bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// ReconcilerOption configures a SyncReconciler
type ReconcilerOption func(*SyncReconciler)

// WithClaimTTL bounds how long a crashed push keeps an order claimed
func WithClaimTTL(ttl time.Duration) ReconcilerOption {
	return func(r *SyncReconciler) {
		if ttl > 0 {
			r.claimTTL = ttl
		}
	}
}

// WithVerifyBeforePush looks the order up upstream before posting it again
func WithVerifyBeforePush(verify bool) ReconcilerOption {
	return func(r *SyncReconciler) {
		r.verify = verify
	}
}

// WithReconcilerLogger sets the reconciler logger
func WithReconcilerLogger(logger *zap.Logger) ReconcilerOption {
	return func(r *SyncReconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSyncRecorder sets the metrics sink
func WithSyncRecorder(recorder SyncRecorder) ReconcilerOption {
	return func(r *SyncReconciler) {
		r.recorder = recorder
	}
}

// WithReconcilerClock overrides the time source
func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *SyncReconciler) {
		r.now = now
	}
}

// SyncReconciler pushes locally committed orders to the commerce platform.
// Each push holds a claim on the order id so the checkout push and a
// scheduled pass never post the same order at once.
type SyncReconciler struct {
	orders   OrderBook
	platform integration.CommercePlatform
	claims   shared.IdempotencyStore
	claimTTL time.Duration
	verify   bool
	logger   *zap.Logger
	recorder SyncRecorder
	now      func() time.Time
	pass     sync.Mutex
}

// NewSyncReconciler creates a new SyncReconciler
func NewSyncReconciler(
	orders OrderBook,
	platform integration.CommercePlatform,
	claims shared.IdempotencyStore,
	opts ...ReconcilerOption,
) *SyncReconciler {
	r := &SyncReconciler{
		orders:   orders,
		platform: platform,
		claims:   claims,
		claimTTL: shared.DefaultIdempotencyConfig().TTL,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PushOne sends one order upstream and marks it synced. An already synced
// order is a no-op returning its stored upstream id. On failure the error is
// recorded on the order, which stays unsynced for the next pass.
func (r *SyncReconciler) PushOne(ctx context.Context, order *trade.PosOrder) (int64, error) {
	if order.IsSynced() {
		return *order.UpstreamOrderID, nil
	}

	key := claimKeyPrefix + order.ID.String()
	token, claimed, err := r.claims.MarkProcessed(ctx, key, r.claimTTL)
	if err != nil {
		return 0, shared.NewUpstreamUnavailable("claim order for push", err)
	}
	if !claimed {
		return 0, ErrPushInProgress
	}
	// bookkeeping must survive a cancelled caller so no order is left half synced
	bookCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := r.claims.Release(bookCtx, key, token); err != nil {
			r.logger.Warn("Failed to release push claim", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}()

	current, err := r.orders.Get(ctx, order.ID)
	if err != nil {
		return 0, err
	}
	if current.IsSynced() {
		return *current.UpstreamOrderID, nil
	}

	if r.verify {
		if id, ok := r.findExisting(ctx, current); ok {
			if _, err := r.orders.MarkSynced(bookCtx, current.ID, id); err != nil {
				return 0, err
			}
			r.observe(ctx, nil)
			return id, nil
		}
	}

	created, err := r.platform.CreateOrder(ctx, integration.BuildOrderRequest(current))
	if err != nil {
		if rerr := r.orders.RecordSyncFailure(bookCtx, current.ID, err); rerr != nil {
			r.logger.Error("Failed to record sync failure", zap.String("order_id", current.ID.String()), zap.Error(rerr))
		}
		r.observe(ctx, err)
		r.logger.Warn("Order push failed",
			zap.String("order_id", current.ID.String()),
			zap.String("order_number", current.OrderNumber),
			zap.Bool("retryable", shared.IsRetryable(err)),
			zap.Error(err),
		)
		return 0, err
	}

	if _, err := r.orders.MarkSynced(bookCtx, current.ID, created.ID); err != nil {
		// the order exists upstream; a verified re-push will find it by its tag
		r.logger.Error("Order pushed but not marked synced",
			zap.String("order_id", current.ID.String()),
			zap.Int64("upstream_order_id", created.ID),
			zap.Error(err),
		)
		return 0, err
	}
	r.observe(ctx, nil)
	return created.ID, nil
}

// findExisting reports an upstream order already tagged with this order's id.
// Lookup failures are not fatal; the push goes ahead.
func (r *SyncReconciler) findExisting(ctx context.Context, order *trade.PosOrder) (int64, bool) {
	found, err := r.platform.FindOrderByPosID(ctx, order.ID.String(), order.CreatedAt)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			r.logger.Debug("Pre-push lookup failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
		return 0, false
	}
	r.logger.Info("Order already exists upstream",
		zap.String("order_id", order.ID.String()),
		zap.Int64("upstream_order_id", found.ID),
	)
	return found.ID, true
}

// ReconcileAll pushes every unsynced order, oldest first. A failing order
// never stops the pass; cancellation is checked between pushes.
func (r *SyncReconciler) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	if !r.pass.TryLock() {
		return nil, ErrReconcileInProgress
	}
	defer r.pass.Unlock()

	report := &ReconcileReport{StartedAt: r.now()}
	pending, err := r.orders.ListUnsynced(ctx)
	if err != nil {
		return nil, err
	}
	report.Total = len(pending)

	for i := range pending {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		order := &pending[i]
		upstreamID, err := r.PushOne(ctx, order)
		result := SyncResult{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			Success:         err == nil,
			UpstreamOrderID: upstreamID,
			Err:             err,
		}
		if err == nil {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}
	report.FinishedAt = r.now()

	if report.Total > 0 {
		r.logger.Info("Reconciliation pass finished",
			zap.Int("total", report.Total),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Bool("cancelled", report.Cancelled),
			zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
		)
	}
	return report, nil
}

// SyncOrder pushes a single order by id
func (r *SyncReconciler) SyncOrder(ctx context.Context, id uuid.UUID) (SyncResult, error) {
	order, err := r.orders.Get(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	upstreamID, err := r.PushOne(ctx, order)
	return SyncResult{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Success:         err == nil,
		UpstreamOrderID: upstreamID,
		Err:             err,
	}, nil
}

// RecentUpstreamOrders lists the newest orders as the platform stores them
func (r *SyncReconciler) RecentUpstreamOrders(ctx context.Context, page, perPage int) ([]integration.PlatformOrder, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > integration.MaxPageSize {
		perPage = 20
	}
	return r.platform.ListOrders(ctx, integration.OrderQuery{
		Page:    page,
		PerPage: perPage,
		OrderBy: "date",
		Order:   "desc",
	})
}

func (r *SyncReconciler) observe(ctx context.Context, err error) {
	if r.recorder == nil {
		return
	}
	if err == nil {
		r.recorder.RecordSyncResult(ctx, true, "")
		return
	}
	code := "UNKNOWN"
	var de *shared.DomainError
	if errors.As(err, &de) {
		code = de.Code
	}
	r.recorder.RecordSyncResult(ctx, false, code)
}
