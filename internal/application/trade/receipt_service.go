package trade

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// Receipt formats
const (
	ReceiptFormatHTML = "html"
	ReceiptFormatPDF  = "pdf"
)

// ReceiptRenderer renders an order as an HTML receipt
type ReceiptRenderer interface {
	RenderHTML(order *trade.PosOrder) ([]byte, error)
}

// PDFConverter prints HTML to PDF
type PDFConverter interface {
	HTMLToPDF(ctx context.Context, html []byte) ([]byte, error)
}

// ReceiptArchive keeps a copy of rendered receipts
type ReceiptArchive interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Receipt is a rendered receipt document
type Receipt struct {
	ContentType string
	FileName    string
	Body        []byte
	ArchivedAt  string
}

// ReceiptOption configures a ReceiptService
type ReceiptOption func(*ReceiptService)

// WithPDFConverter enables PDF receipts
func WithPDFConverter(converter PDFConverter) ReceiptOption {
	return func(s *ReceiptService) {
		s.pdf = converter
	}
}

// WithReceiptArchive stores every rendered PDF
func WithReceiptArchive(archive ReceiptArchive) ReceiptOption {
	return func(s *ReceiptService) {
		s.archive = archive
	}
}

// WithReceiptLogger sets the receipt logger
func WithReceiptLogger(logger *zap.Logger) ReceiptOption {
	return func(s *ReceiptService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// ReceiptService renders receipts for committed orders and records printing
type ReceiptService struct {
	ledger   *OrderLedger
	renderer ReceiptRenderer
	pdf      PDFConverter
	archive  ReceiptArchive
	logger   *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(ledger *OrderLedger, renderer ReceiptRenderer, opts ...ReceiptOption) *ReceiptService {
	s := &ReceiptService{
		ledger:   ledger,
		renderer: renderer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PDFEnabled reports whether PDF receipts can be produced
func (s *ReceiptService) PDFEnabled() bool {
	return s.pdf != nil
}

// Render produces the receipt of an order in the requested format
func (s *ReceiptService) Render(ctx context.Context, id uuid.UUID, format string) (*Receipt, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ReceiptFormatHTML
	}
	if format != ReceiptFormatHTML && format != ReceiptFormatPDF {
		return nil, shared.NewInvalidInput(fmt.Sprintf("unknown receipt format %q", format))
	}
	if format == ReceiptFormatPDF && s.pdf == nil {
		return nil, shared.NewInvalidInput("pdf receipts are disabled")
	}

	order, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.RenderHTML(order)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	if format == ReceiptFormatHTML {
		return &Receipt{
			ContentType: "text/html; charset=utf-8",
			FileName:    order.OrderNumber + ".html",
			Body:        html,
		}, nil
	}

	pdf, err := s.pdf.HTMLToPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("print receipt pdf: %w", err)
	}
	receipt := &Receipt{
		ContentType: "application/pdf",
		FileName:    order.OrderNumber + ".pdf",
		Body:        pdf,
	}
	if s.archive != nil {
		key := order.CreatedAt.UTC().Format("2006/01/02") + "/" + receipt.FileName
		location, err := s.archive.Save(ctx, key, pdf, receipt.ContentType)
		if err != nil {
			s.logger.Warn("Receipt archive failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		} else {
			receipt.ArchivedAt = location
		}
	}
	return receipt, nil
}

// MarkPrinted sets the order's receipt-printed flag
func (s *ReceiptService) MarkPrinted(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error) {
	return s.ledger.MarkReceiptPrinted(ctx, id)
}
