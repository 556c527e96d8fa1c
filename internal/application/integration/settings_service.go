package integration

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/integration"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/infrastructure/ecommerce"
	"go.uber.org/zap"
)

// UpstreamConnection is the reloadable commerce platform client
type UpstreamConnection interface {
	Config() (ecommerce.WooCommerceConfig, bool)
	Reload(cfg ecommerce.WooCommerceConfig) error
	SystemStatus(ctx context.Context) (*integration.SystemStatus, error)
}

// TillSettings are the read-only settings shown next to the connection
type TillSettings struct {
	TaxRate           decimal.Decimal
	MissPolicy        string
	SyncEnabled       bool
	SyncInterval      time.Duration
	LowStockThreshold int
}

// SettingsService shows and updates the commerce platform connection.
// Updates apply to the running process only; the config file stays the
// operator's to edit.
type SettingsService struct {
	conn   UpstreamConnection
	till   TillSettings
	logger *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(conn UpstreamConnection, till TillSettings, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{conn: conn, till: till, logger: logger}
}

// Get returns the running settings with credentials masked
func (s *SettingsService) Get() SettingsResponse {
	cfg, configured := s.conn.Config()
	return SettingsResponse{
		StoreURL:          cfg.StoreURL,
		ConsumerKey:       MaskSecret(cfg.ConsumerKey),
		ConsumerSecret:    MaskSecret(cfg.ConsumerSecret),
		Configured:        configured,
		TaxRate:           s.till.TaxRate,
		MissPolicy:        s.till.MissPolicy,
		SyncEnabled:       s.till.SyncEnabled,
		SyncInterval:      s.till.SyncInterval.String(),
		LowStockThreshold: s.till.LowStockThreshold,
	}
}

// UpdateUpstream swaps the connection. Empty credentials keep the current ones.
func (s *SettingsService) UpdateUpstream(req UpdateUpstreamRequest) (SettingsResponse, error) {
	current, _ := s.conn.Config()
	next := current
	next.StoreURL = strings.TrimRight(strings.TrimSpace(req.StoreURL), "/")
	if key := strings.TrimSpace(req.ConsumerKey); key != "" {
		next.ConsumerKey = key
	}
	if secret := strings.TrimSpace(req.ConsumerSecret); secret != "" {
		next.ConsumerSecret = secret
	}
	if err := s.conn.Reload(next); err != nil {
		return SettingsResponse{}, shared.NewInvalidInput(err.Error())
	}
	s.logger.Info("Upstream connection updated", zap.String("store_url", next.StoreURL))
	return s.Get(), nil
}

// TestConnection makes one round trip to the platform
func (s *SettingsService) TestConnection(ctx context.Context) (ConnectionTestResponse, error) {
	if _, configured := s.conn.Config(); !configured {
		return ConnectionTestResponse{}, shared.NewInvalidInput("commerce platform is not configured")
	}
	status, err := s.conn.SystemStatus(ctx)
	if err != nil {
		return ConnectionTestResponse{}, err
	}
	return ConnectionTestResponse{
		Connected:          true,
		HomeURL:            status.Environment.HomeURL,
		WooCommerceVersion: status.Environment.Version,
		WordPressVersion:   status.Environment.WPVersion,
	}, nil
}

// MaskSecret hides all but the last four characters
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) <= 4 {
		return "••••"
	}
	return "••••" + string(r[len(r)-4:])
}
