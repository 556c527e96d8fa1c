package ecommerce

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/storepos/backend/internal/infrastructure/config"
)

// WooCommerceAPIPath is appended to the store URL to reach the REST API
const WooCommerceAPIPath = "/wp-json/wc/v3"

// DefaultTimeout bounds every upstream call when none is configured
const DefaultTimeout = 10 * time.Second

// Errors for WooCommerce configuration
var (
	ErrWooConfigMissingStoreURL       = errors.New("woocommerce: store URL is required")
	ErrWooConfigMissingConsumerKey    = errors.New("woocommerce: consumer key is required")
	ErrWooConfigMissingConsumerSecret = errors.New("woocommerce: consumer secret is required")
	ErrWooConfigInsecureStoreURL      = errors.New("woocommerce: store URL must use https")
)

// WooCommerceConfig holds the store address and REST API credentials
type WooCommerceConfig struct {
	// StoreURL is the site root, e.g. https://shop.example.com
	StoreURL string
	// ConsumerKey is the REST API key (ck_...)
	ConsumerKey string
	// ConsumerSecret is the REST API secret (cs_...)
	ConsumerSecret string
	// Timeout bounds each request
	Timeout time.Duration
	// RateLimit caps requests per second; 0 disables limiting
	RateLimit float64
	// RateBurst is the limiter burst size
	RateBurst int
	// AllowInsecure permits plain http, for local development stores only
	AllowInsecure bool
}

// NewWooCommerceConfig maps the application's upstream section
func NewWooCommerceConfig(cfg config.UpstreamConfig) WooCommerceConfig {
	return WooCommerceConfig{
		StoreURL:       cfg.StoreURL,
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		Timeout:        cfg.Timeout,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		AllowInsecure:  cfg.AllowInsecure,
	}
}

// IsConfigured reports whether any connection settings were given
func (c WooCommerceConfig) IsConfigured() bool {
	return c.StoreURL != "" || c.ConsumerKey != "" || c.ConsumerSecret != ""
}

// Validate checks the configuration and fills defaults
func (c *WooCommerceConfig) Validate() error {
	if c.StoreURL == "" {
		return ErrWooConfigMissingStoreURL
	}
	if c.ConsumerKey == "" {
		return ErrWooConfigMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrWooConfigMissingConsumerSecret
	}
	u, err := url.Parse(c.StoreURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("woocommerce: invalid store URL %q", c.StoreURL)
	}
	if u.Scheme != "https" && !(c.AllowInsecure && u.Scheme == "http") {
		return ErrWooConfigInsecureStoreURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	return nil
}

// BaseURL returns the REST API root
func (c WooCommerceConfig) BaseURL() string {
	return strings.TrimRight(c.StoreURL, "/") + WooCommerceAPIPath
}
