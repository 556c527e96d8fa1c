package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/storepos/backend/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type htmlRendererStub struct{}

func (htmlRendererStub) RenderHTML(order *trade.PosOrder) ([]byte, error) {
	return []byte("<html>" + order.OrderNumber + "</html>"), nil
}

// MockPDFConverter is a mock implementation of PDFConverter
type MockPDFConverter struct {
	mock.Mock
}

func (m *MockPDFConverter) HTMLToPDF(ctx context.Context, html []byte) ([]byte, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockReceiptArchive is a mock implementation of ReceiptArchive
type MockReceiptArchive struct {
	mock.Mock
}

func (m *MockReceiptArchive) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func TestReceiptService_Render(t *testing.T) {
	ctx := context.Background()
	ledger := NewOrderLedger(memory.NewPosOrderRepository())
	order, err := ledger.Create(ctx, sampleInput())
	require.NoError(t, err)

	t.Run("html", func(t *testing.T) {
		svc := NewReceiptService(ledger, htmlRendererStub{})
		receipt, err := svc.Render(ctx, order.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "text/html; charset=utf-8", receipt.ContentType)
		assert.Contains(t, string(receipt.Body), order.OrderNumber)
		assert.False(t, svc.PDFEnabled())
	})

	t.Run("pdf disabled", func(t *testing.T) {
		svc := NewReceiptService(ledger, htmlRendererStub{})
		_, err := svc.Render(ctx, order.ID, "pdf")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown format", func(t *testing.T) {
		svc := NewReceiptService(ledger, htmlRendererStub{})
		_, err := svc.Render(ctx, order.ID, "docx")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("pdf archived", func(t *testing.T) {
		pdf := new(MockPDFConverter)
		pdf.On("HTMLToPDF", ctx, mock.Anything).Return([]byte("%PDF-1.7"), nil)
		archive := new(MockReceiptArchive)
		archive.On("Save", ctx, mock.MatchedBy(func(key string) bool {
			return len(key) > 11 && key[len(key)-4:] == ".pdf"
		}), []byte("%PDF-1.7"), "application/pdf").Return("s3://receipts/x.pdf", nil)

		svc := NewReceiptService(ledger, htmlRendererStub{}, WithPDFConverter(pdf), WithReceiptArchive(archive))
		receipt, err := svc.Render(ctx, order.ID, "PDF")
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", receipt.ContentType)
		assert.Equal(t, order.OrderNumber+".pdf", receipt.FileName)
		assert.Equal(t, "s3://receipts/x.pdf", receipt.ArchivedAt)
		archive.AssertExpectations(t)
	})

	t.Run("archive failure still returns the pdf", func(t *testing.T) {
		pdf := new(MockPDFConverter)
		pdf.On("HTMLToPDF", ctx, mock.Anything).Return([]byte("%PDF"), nil)
		archive := new(MockReceiptArchive)
		archive.On("Save", ctx, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))

		svc := NewReceiptService(ledger, htmlRendererStub{}, WithPDFConverter(pdf), WithReceiptArchive(archive))
		receipt, err := svc.Render(ctx, order.ID, "pdf")
		require.NoError(t, err)
		assert.Empty(t, receipt.ArchivedAt)
	})

	t.Run("missing order", func(t *testing.T) {
		svc := NewReceiptService(ledger, htmlRendererStub{})
		_, err := svc.Render(ctx, uuid.Must(uuid.NewV7()), "html")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestReceiptService_MarkPrinted(t *testing.T) {
	ctx := context.Background()
	ledger := NewOrderLedger(memory.NewPosOrderRepository())
	order, err := ledger.Create(ctx, sampleInput())
	require.NoError(t, err)

	svc := NewReceiptService(ledger, htmlRendererStub{})
	printed, err := svc.MarkPrinted(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, printed.ReceiptPrinted)
	assert.Equal(t, trade.SyncStateUnsynced, printed.SyncState)
}
