package receipt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/storepos/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleOrder() *trade.PosOrder {
	return &trade.PosOrder{
		ID:          uuid.New(),
		OrderNumber: "POS-1760870400000",
		Items: []trade.LineItem{
			{ProductID: 11, Name: "Flat White", SKU: "FW-1", UnitPrice: d("4.50"), Quantity: 2, Subtotal: d("9.00")},
			{ProductID: 12, Name: "Croissant <warm>", UnitPrice: d("3.25"), Quantity: 1, Subtotal: d("3.25")},
		},
		Subtotal:      d("12.25"),
		Discount:      d("1.00"),
		Tax:           d("1.13"),
		Total:         d("12.38"),
		AmountPaid:    d("20.00"),
		Change:        d("7.62"),
		PaymentMethod: trade.PaymentMethodCash,
		Status:        trade.OrderStatusCompleted,
		CashierName:   "Sam P.",
		CreatedAt:     time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
	}
}

func TestHTMLRenderer_RenderHTML(t *testing.T) {
	r, err := NewHTMLRenderer(RendererConfig{StoreName: "Corner Cafe", Footer: "Thank you!", Location: time.UTC})
	require.NoError(t, err)

	out, err := r.RenderHTML(sampleOrder())
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<h1>Corner Cafe</h1>")
	assert.Contains(t, html, "POS-1760870400000")
	assert.Contains(t, html, "2026-10-19 09:30")
	assert.Contains(t, html, "Served by Sam P.")
	assert.Contains(t, html, "2 x 4.50")
	assert.Contains(t, html, "-1.00")
	assert.Contains(t, html, "12.38")
	assert.Contains(t, html, "Paid (Cash)")
	assert.Contains(t, html, "7.62")
	assert.Contains(t, html, "Thank you!")
	assert.Contains(t, html, "Croissant &lt;warm&gt;")
	assert.NotContains(t, html, "Customer:")
}

func TestHTMLRenderer_OmitsEmptyRows(t *testing.T) {
	r, err := NewHTMLRenderer(RendererConfig{})
	require.NoError(t, err)

	order := sampleOrder()
	order.Discount = decimal.Zero
	order.Change = decimal.Zero
	order.CashierName = ""

	out, err := r.RenderHTML(order)
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "<h1>Store</h1>")
	assert.NotContains(t, html, "Discount")
	assert.NotContains(t, html, "Change")
	assert.NotContains(t, html, "Served by")
}

func TestHTMLRenderer_NilOrder(t *testing.T) {
	r, err := NewHTMLRenderer(RendererConfig{})
	require.NoError(t, err)
	_, err = r.RenderHTML(nil)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestFilesystemArchive_Save(t *testing.T) {
	base := t.TempDir()
	a, err := NewFilesystemArchive(base, zaptest.NewLogger(t))
	require.NoError(t, err)

	path, err := a.Save(context.Background(), "2026/10/19/POS-1.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "2026", "10", "19", "POS-1.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemArchive_KeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	a, err := NewFilesystemArchive(base, nil)
	require.NoError(t, err)

	path, err := a.Save(context.Background(), "../../etc/receipt.pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "etc", "receipt.pdf"), path)

	_, err = a.Save(context.Background(), "", []byte("x"), "application/pdf")
	assert.Error(t, err)
}

func TestFilesystemArchive_Cancelled(t *testing.T) {
	a, err := NewFilesystemArchive(t.TempDir(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Save(ctx, "a.pdf", []byte("x"), "application/pdf")
	assert.Error(t, err)
}

func TestNewArchive(t *testing.T) {
	ctx := context.Background()

	a, err := NewArchive(ctx, config.StorageConfig{Type: "filesystem", BasePath: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FilesystemArchive{}, a)

	_, err = NewArchive(ctx, config.StorageConfig{Type: "ftp"}, nil)
	assert.Error(t, err)

	_, err = NewArchive(ctx, config.StorageConfig{Type: "s3"}, nil)
	assert.Error(t, err, "bucket is required")
}

func TestNewS3Archive_RequiresCredentials(t *testing.T) {
	_, err := NewS3Archive(context.Background(), config.StorageConfig{Bucket: "receipts"}, nil)
	assert.Error(t, err)

	a, err := NewS3Archive(context.Background(), config.StorageConfig{
		Bucket:       "receipts",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		Endpoint:     "localhost:9000",
		UsePathStyle: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "receipts", a.bucket)
}

func TestChromePrinter_EmptyHTML(t *testing.T) {
	p := NewChromePrinter(ChromeConfig{})
	defer p.Close()

	_, err := p.HTMLToPDF(context.Background(), []byte("  "))
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestChromePrinter_Defaults(t *testing.T) {
	p := NewChromePrinter(ChromeConfig{RemoteURL: "ws://127.0.0.1:9222"})
	assert.Equal(t, defaultChromeTimeout, p.config.Timeout)
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

// Runs only when POS_TEST_CHROME=1 and a Chrome binary is installed.
func TestChromePrinter_HTMLToPDF(t *testing.T) {
	if os.Getenv("POS_TEST_CHROME") == "" {
		t.Skip("POS_TEST_CHROME not set")
	}
	r, err := NewHTMLRenderer(RendererConfig{StoreName: "Corner Cafe"})
	require.NoError(t, err)
	html, err := r.RenderHTML(sampleOrder())
	require.NoError(t, err)

	p := NewChromePrinter(ChromeConfig{NoSandbox: true, Logger: zaptest.NewLogger(t)})
	defer p.Close()

	pdf, err := p.HTMLToPDF(context.Background(), html)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestMmToInches(t *testing.T) {
	assert.InDelta(t, 3.1496, mmToInches(80), 0.0001)
}
