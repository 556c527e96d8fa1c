package integration

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Sync DTOs
// ---------------------------------------------------------------------------

// SyncResultResponse represents the outcome of one order push in API responses
type SyncResultResponse struct {
	OrderID         uuid.UUID `json:"order_id"`
	OrderNumber     string    `json:"order_number"`
	Success         bool      `json:"success"`
	UpstreamOrderID int64     `json:"upstream_order_id,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// ReconcileResponse represents a reconciliation pass in API responses
type ReconcileResponse struct {
	Total      int                  `json:"total"`
	Succeeded  int                  `json:"succeeded"`
	Failed     int                  `json:"failed"`
	Cancelled  bool                 `json:"cancelled"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Results    []SyncResultResponse `json:"results"`
}

// UpstreamOrderResponse represents an order as the commerce platform stores it
type UpstreamOrderResponse struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	Status      string `json:"status"`
	Total       string `json:"total"`
	CustomerID  int64  `json:"customer_id"`
	DateCreated string `json:"date_created"`
	PosOrderID  string `json:"pos_order_id,omitempty"`
}

// ToSyncResultResponse converts a SyncResult to its response
func ToSyncResultResponse(r SyncResult) SyncResultResponse {
	resp := SyncResultResponse{
		OrderID:         r.OrderID,
		OrderNumber:     r.OrderNumber,
		Success:         r.Success,
		UpstreamOrderID: r.UpstreamOrderID,
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}

// ToReconcileResponse converts a pass report to its response
func ToReconcileResponse(report *ReconcileReport) ReconcileResponse {
	results := make([]SyncResultResponse, len(report.Results))
	for i, r := range report.Results {
		results[i] = ToSyncResultResponse(r)
	}
	return ReconcileResponse{
		Total:      report.Total,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Cancelled:  report.Cancelled,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Results:    results,
	}
}

// ToUpstreamOrderResponses converts upstream orders to responses
func ToUpstreamOrderResponses(orders []integration.PlatformOrder) []UpstreamOrderResponse {
	responses := make([]UpstreamOrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = UpstreamOrderResponse{
			ID:          o.ID,
			Number:      o.Number,
			Status:      o.Status,
			Total:       o.Total,
			CustomerID:  o.CustomerID,
			DateCreated: o.DateCreated,
			PosOrderID:  o.PosOrderID(),
		}
	}
	return responses
}

// ---------------------------------------------------------------------------
// Settings DTOs
// ---------------------------------------------------------------------------

// SettingsResponse shows the running configuration with credentials masked
type SettingsResponse struct {
	StoreURL          string          `json:"store_url"`
	ConsumerKey       string          `json:"consumer_key"`
	ConsumerSecret    string          `json:"consumer_secret"`
	Configured        bool            `json:"configured"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	MissPolicy        string          `json:"miss_policy"`
	SyncEnabled       bool            `json:"sync_enabled"`
	SyncInterval      string          `json:"sync_interval"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

// UpdateUpstreamRequest replaces the commerce platform connection. Empty
// credentials keep the current value.
type UpdateUpstreamRequest struct {
	StoreURL       string `json:"store_url" binding:"required,url,max=500"`
	ConsumerKey    string `json:"consumer_key" binding:"max=200"`
	ConsumerSecret string `json:"consumer_secret" binding:"max=200"`
}

// ConnectionTestResponse reports a successful round trip to the platform
type ConnectionTestResponse struct {
	Connected          bool   `json:"connected"`
	HomeURL            string `json:"home_url"`
	WooCommerceVersion string `json:"woocommerce_version"`
	WordPressVersion   string `json:"wordpress_version"`
}
