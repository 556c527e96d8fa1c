package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Upstream  UpstreamConfig
	POS       POSConfig
	Catalog   CatalogConfig
	Sync      SyncConfig
	Receipt   ReceiptConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite, memory
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// AuthConfig lists the cashier accounts allowed to sign in
type AuthConfig struct {
	Users     []UserConfig
	SkipPaths []string
}

// UserConfig is one cashier account. PasswordHash is a bcrypt hash.
type UserConfig struct {
	ID           string `mapstructure:"id"`
	Username     string `mapstructure:"username"`
	DisplayName  string `mapstructure:"display_name"`
	Role         string `mapstructure:"role"`
	PasswordHash string `mapstructure:"password_hash"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	LoginAttempts    int // per client IP per LoginWindow, 0 disables
	LoginWindow      time.Duration
}

// UpstreamConfig holds the commerce platform connection
type UpstreamConfig struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
	RateLimit      float64 // requests per second, 0 disables
	RateBurst      int
	AllowInsecure  bool
}

// IsConfigured reports whether a store and credentials are set
func (u UpstreamConfig) IsConfigured() bool {
	return u.StoreURL != "" && u.ConsumerKey != "" && u.ConsumerSecret != ""
}

// POSConfig holds till behaviour
type POSConfig struct {
	TaxRate           decimal.Decimal
	LowStockThreshold int
	PushStockOnAdjust bool
}

// CatalogConfig holds catalog cache behaviour
type CatalogConfig struct {
	MissPolicy      string // single, bulk
	PageSize        int
	RefreshInterval time.Duration // 0 disables periodic refresh
	ListLimit       int
	FetchTimeout    time.Duration // bounds a shared upstream fetch
}

// Cache miss policies
const (
	MissPolicySingle = "single"
	MissPolicyBulk   = "bulk"
)

// SyncConfig holds order reconciliation behaviour
type SyncConfig struct {
	Enabled          bool
	PushOnCheckout   bool
	Interval         time.Duration
	PassTimeout      time.Duration
	ClaimTTL         time.Duration
	VerifyBeforePush bool
}

// ReceiptConfig holds receipt rendering settings
type ReceiptConfig struct {
	StoreName       string
	Footer          string
	PDFEnabled      bool
	ChromeRemoteURL string
	ChromeNoSandbox bool
	RenderTimeout   time.Duration
	ArchiveEnabled  bool
}

// StorageConfig holds S3-compatible object storage settings for receipt archives
type StorageConfig struct {
	Type              string // filesystem, s3
	BasePath          string
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	MetricsEnabled    bool    // Whether to export metrics
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	MetricsInterval   time.Duration
	DBSlowQueryThresh time.Duration
}

// ProfilingConfig holds Pyroscope continuous profiling settings
type ProfilingConfig struct {
	Enabled       bool
	ServerAddress string
	AuthUser      string
	AuthPassword  string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with POS_ prefix (e.g., POS_UPSTREAM_CONSUMER_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return build(v)
}

// LoadAndWatch loads configuration and calls onChange with the rebuilt
// configuration every time the config file changes on disk.
func LoadAndWatch(onChange func(*Config, error)) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	cfg, err := build(v)
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(fsnotify.Event) {
			onChange(build(v))
		})
		v.WatchConfig()
	}
	return cfg, nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/storepos")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func build(v *viper.Viper) (*Config, error) {
	taxRate, err := parseRate(v.GetString("pos.tax_rate"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Auth: AuthConfig{
			SkipPaths: v.GetStringSlice("auth.skip_paths"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			LoginAttempts:    loginAttempts(v),
			LoginWindow:      v.GetDuration("http.login_window"),
		},
		Upstream: UpstreamConfig{
			StoreURL:       strings.TrimRight(v.GetString("upstream.store_url"), "/"),
			ConsumerKey:    v.GetString("upstream.consumer_key"),
			ConsumerSecret: v.GetString("upstream.consumer_secret"),
			Timeout:        v.GetDuration("upstream.timeout"),
			RateLimit:      v.GetFloat64("upstream.rate_limit"),
			RateBurst:      v.GetInt("upstream.rate_burst"),
			AllowInsecure:  v.GetBool("upstream.allow_insecure"),
		},
		POS: POSConfig{
			TaxRate:           taxRate,
			LowStockThreshold: v.GetInt("pos.low_stock_threshold"),
			PushStockOnAdjust: v.GetBool("pos.push_stock_on_adjust"),
		},
		Catalog: CatalogConfig{
			MissPolicy:      strings.ToLower(v.GetString("catalog.miss_policy")),
			PageSize:        v.GetInt("catalog.page_size"),
			RefreshInterval: v.GetDuration("catalog.refresh_interval"),
			ListLimit:       v.GetInt("catalog.list_limit"),
			FetchTimeout:    v.GetDuration("catalog.fetch_timeout"),
		},
		Sync: SyncConfig{
			Enabled:          !v.IsSet("sync.enabled") || v.GetBool("sync.enabled"),
			PushOnCheckout:   !v.IsSet("sync.push_on_checkout") || v.GetBool("sync.push_on_checkout"),
			Interval:         v.GetDuration("sync.interval"),
			PassTimeout:      v.GetDuration("sync.pass_timeout"),
			ClaimTTL:         v.GetDuration("sync.claim_ttl"),
			VerifyBeforePush: v.GetBool("sync.verify_before_push"),
		},
		Receipt: ReceiptConfig{
			StoreName:       v.GetString("receipt.store_name"),
			Footer:          v.GetString("receipt.footer"),
			PDFEnabled:      v.GetBool("receipt.pdf_enabled"),
			ChromeRemoteURL: v.GetString("receipt.chrome_remote_url"),
			ChromeNoSandbox: v.GetBool("receipt.chrome_no_sandbox"),
			RenderTimeout:   v.GetDuration("receipt.render_timeout"),
			ArchiveEnabled:  v.GetBool("receipt.archive_enabled"),
		},
		Storage: StorageConfig{
			Type:              v.GetString("storage.type"),
			BasePath:          v.GetString("storage.base_path"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Profiling: ProfilingConfig{
			Enabled:       v.GetBool("profiling.enabled"),
			ServerAddress: v.GetString("profiling.server_address"),
			AuthUser:      v.GetString("profiling.auth_user"),
			AuthPassword:  v.GetString("profiling.auth_password"),
		},
	}

	if err := v.UnmarshalKey("auth.users", &cfg.Auth.Users); err != nil {
		return nil, fmt.Errorf("invalid auth.users: %w", err)
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loginAttempts(v *viper.Viper) int {
	if !v.IsSet("http.login_attempts") {
		return 5
	}
	return v.GetInt("http.login_attempts")
}

func parseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.NewFromFloat(0.10), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pos.tax_rate %q is not a number: %w", s, err)
	}
	return d, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storepos"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storepos"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "storepos.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 12 * time.Hour // one shift
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "storepos"
	}
	if len(cfg.Auth.SkipPaths) == 0 {
		cfg.Auth.SkipPaths = []string{"/health", "/ready", "/api/v1/auth/login"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second // full catalog syncs run inline
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.HTTP.LoginWindow == 0 {
		cfg.HTTP.LoginWindow = time.Minute
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}
	if cfg.Upstream.RateBurst == 0 {
		cfg.Upstream.RateBurst = 5
	}
	if cfg.POS.LowStockThreshold == 0 {
		cfg.POS.LowStockThreshold = 10
	}
	if cfg.Catalog.MissPolicy == "" {
		cfg.Catalog.MissPolicy = MissPolicySingle
	}
	if cfg.Catalog.PageSize == 0 {
		cfg.Catalog.PageSize = 100
	}
	if cfg.Catalog.ListLimit == 0 {
		cfg.Catalog.ListLimit = 100
	}
	if cfg.Catalog.FetchTimeout == 0 {
		cfg.Catalog.FetchTimeout = 2 * time.Minute
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 5 * time.Minute
	}
	if cfg.Sync.PassTimeout == 0 {
		cfg.Sync.PassTimeout = 2 * time.Minute
	}
	if cfg.Sync.ClaimTTL == 0 {
		cfg.Sync.ClaimTTL = 2 * time.Minute
	}
	if cfg.Receipt.StoreName == "" {
		cfg.Receipt.StoreName = "Store"
	}
	if cfg.Receipt.Footer == "" {
		cfg.Receipt.Footer = "Thank you for shopping with us!"
	}
	if cfg.Receipt.RenderTimeout == 0 {
		cfg.Receipt.RenderTimeout = 30 * time.Second
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "filesystem"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "data/receipts"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "storepos"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of postgres, sqlite, memory; got %q", c.Database.Driver)
	}

	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.POS.TaxRate.IsNegative() || c.POS.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("pos.tax_rate must be between 0 and 1, got %s", c.POS.TaxRate)
	}

	switch c.Catalog.MissPolicy {
	case MissPolicySingle, MissPolicyBulk:
	default:
		return fmt.Errorf("catalog.miss_policy must be %q or %q, got %q", MissPolicySingle, MissPolicyBulk, c.Catalog.MissPolicy)
	}
	if c.Catalog.PageSize < 1 || c.Catalog.PageSize > 100 {
		return fmt.Errorf("catalog.page_size must be between 1 and 100, got %d", c.Catalog.PageSize)
	}

	if err := c.Upstream.Validate(); err != nil {
		return err
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver == DriverMemory {
			return fmt.Errorf("database.driver=memory loses orders on restart and is not allowed in production")
		}
		if c.Database.Driver == DriverPostgres && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Upstream.AllowInsecure {
			return fmt.Errorf("upstream.allow_insecure must be false in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Validate checks the upstream store URL. An unset store is valid; the
// client then reports every call as unavailable.
func (u UpstreamConfig) Validate() error {
	if u.StoreURL == "" {
		return nil
	}
	parsed, err := url.Parse(u.StoreURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("upstream.store_url %q is not a valid URL", u.StoreURL)
	}
	if parsed.Scheme != "https" && !u.AllowInsecure {
		return fmt.Errorf("upstream.store_url must use https (set upstream.allow_insecure for local development)")
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
