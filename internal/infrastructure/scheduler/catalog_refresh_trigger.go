package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CatalogRefresher reloads the product cache from the commerce platform
type CatalogRefresher interface {
	SyncProducts(ctx context.Context) (int, error)
}

// CatalogRefreshTrigger reloads the product cache on a fixed interval
type CatalogRefreshTrigger struct {
	interval  time.Duration
	timeout   time.Duration
	refresher CatalogRefresher
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCatalogRefreshTrigger creates a refresh trigger. A zero interval yields a
// trigger whose Start is a no-op.
func NewCatalogRefreshTrigger(interval time.Duration, refresher CatalogRefresher, logger *zap.Logger) *CatalogRefreshTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := interval
	if timeout <= 0 || timeout > 10*time.Minute {
		timeout = 10 * time.Minute
	}
	return &CatalogRefreshTrigger{
		interval:  interval,
		timeout:   timeout,
		refresher: refresher,
		logger:    logger,
	}
}

// Enabled reports whether periodic refresh is configured
func (c *CatalogRefreshTrigger) Enabled() bool {
	return c.interval > 0
}

// Start starts the refresh loop
func (c *CatalogRefreshTrigger) Start(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Catalog refresh trigger started", zap.Duration("interval", c.interval))
	return nil
}

// Stop stops the loop, bounded by ctx
func (c *CatalogRefreshTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Catalog refresh trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CatalogRefreshTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

func (c *CatalogRefreshTrigger) refresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	count, err := c.refresher.SyncProducts(refreshCtx)
	if err != nil {
		// the previous snapshot stays in place
		c.logger.Warn("Catalog refresh failed", zap.Error(err))
		return
	}
	c.logger.Info("Catalog refreshed",
		zap.Int("products", count),
		zap.Duration("duration", time.Since(start)),
	)
}
