//go:build integration

package persistence

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storepos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	_, file, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestPostgres_OrderLedgerAndCatalog(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	products := NewGormProductRepository(db)
	require.NoError(t, products.ReplaceAll(ctx, []catalog.Product{
		newTestProduct(1, "Sencha", "TEA-1", intPtr(3)),
	}))
	found, err := products.Search(ctx, "SEN", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	orders := NewGormPosOrderRepository(db)
	order := newTestOrder(t, "4.00", 2)
	require.NoError(t, orders.Create(ctx, order))

	changed, err := orders.MarkSynced(ctx, order.ID, 88, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = orders.MarkSynced(ctx, order.ID, 89, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.SyncStateSynced, stored.SyncState)
	assert.Equal(t, int64(88), *stored.UpstreamOrderID)
}
