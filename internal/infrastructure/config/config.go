package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Gateway   GatewayConfig
	Sync      SyncConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Journal   JournalConfig
	HTTP      HTTPConfig
	Urgency   UrgencyConfig
	Telemetry TelemetryConfig
	Archive   ArchiveConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Timezone string // IANA zone of the bakery; remote dates without an offset are read in it
}

// GatewayConfig holds the remote order API settings
type GatewayConfig struct {
	Mode           string // http, demo
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	DemoSeed       uint64
	DemoOrders     int
	DemoLatency    time.Duration
}

// SyncConfig holds store synchronization settings
type SyncConfig struct {
	PollInterval time.Duration
	LoadOnStart  bool
}

// CacheConfig holds statistics cache settings
type CacheConfig struct {
	Driver   string // memory, redis
	StatsTTL time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JournalConfig holds the mutation journal database settings
type JournalConfig struct {
	Enabled         bool
	Driver          string // sqlite, postgres
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration // 0 keeps SSE streams open
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	SSEHeartbeat   time.Duration
	SSEMaxClients  int
	TrustedProxies []string
	CORSOrigins    []string
	MaxBodyBytes   int64
	RateLimitRPS   float64 // per client, mutating routes only; 0 disables
	RateLimitBurst int
}

// UrgencyConfig holds kitchen urgency settings
type UrgencyConfig struct {
	Window time.Duration
}

// TelemetryConfig holds OpenTelemetry tracing settings
type TelemetryConfig struct {
	Enabled       bool
	Endpoint      string // OTLP gRPC collector, host:port
	SamplingRatio float64
	Insecure      bool
	ExportLogs    bool // also ship zap entries at info and above over OTLP

	ProfilingEnabled bool
	ProfilingAddress string // Pyroscope server
}

// ArchiveConfig holds the object storage target for pruned journal entries.
// An empty bucket turns archiving off.
type ArchiveConfig struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string // S3-compatible endpoint; empty for AWS
	AccessKey    string // empty uses the default AWS credential chain
	SecretKey    string
	UsePathStyle bool
}

// Gateway modes
const (
	GatewayModeHTTP = "http"
	GatewayModeDemo = "demo"
)

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BAKERY_ prefix (e.g., BAKERY_GATEWAY_BASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BAKERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans cannot be told apart from "unset" after the fact
	v.SetDefault("sync.load_on_start", true)
	v.SetDefault("journal.enabled", true)
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.insecure", true)

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			Timezone: v.GetString("app.timezone"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Gateway: GatewayConfig{
			Mode:           v.GetString("gateway.mode"),
			BaseURL:        v.GetString("gateway.base_url"),
			Timeout:        v.GetDuration("gateway.timeout"),
			RateLimitRPS:   v.GetFloat64("gateway.rate_limit_rps"),
			RateLimitBurst: v.GetInt("gateway.rate_limit_burst"),
			DemoSeed:       v.GetUint64("gateway.demo_seed"),
			DemoOrders:     v.GetInt("gateway.demo_orders"),
			DemoLatency:    v.GetDuration("gateway.demo_latency"),
		},
		Sync: SyncConfig{
			PollInterval: v.GetDuration("sync.poll_interval"),
			LoadOnStart:  v.GetBool("sync.load_on_start"),
		},
		Cache: CacheConfig{
			Driver:   v.GetString("cache.driver"),
			StatsTTL: v.GetDuration("cache.stats_ttl"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Journal: JournalConfig{
			Enabled:         v.GetBool("journal.enabled"),
			Driver:          v.GetString("journal.driver"),
			DSN:             v.GetString("journal.dsn"),
			MaxOpenConns:    v.GetInt("journal.max_open_conns"),
			MaxIdleConns:    v.GetInt("journal.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("journal.conn_max_lifetime"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			SSEHeartbeat:   v.GetDuration("http.sse_heartbeat"),
			SSEMaxClients:  v.GetInt("http.sse_max_clients"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
			CORSOrigins:    v.GetStringSlice("http.cors_origins"),
			MaxBodyBytes:   v.GetInt64("http.max_body_bytes"),
			RateLimitRPS:   v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst: v.GetInt("http.rate_limit_burst"),
		},
		Urgency: UrgencyConfig{
			Window: v.GetDuration("urgency.window"),
		},
		Archive: ArchiveConfig{
			Bucket:       v.GetString("archive.bucket"),
			Prefix:       v.GetString("archive.prefix"),
			Region:       v.GetString("archive.region"),
			Endpoint:     v.GetString("archive.endpoint"),
			AccessKey:    v.GetString("archive.access_key"),
			SecretKey:    v.GetString("archive.secret_key"),
			UsePathStyle: v.GetBool("archive.use_path_style"),
		},
		Telemetry: TelemetryConfig{
			Enabled:       v.GetBool("telemetry.enabled"),
			Endpoint:      v.GetString("telemetry.endpoint"),
			SamplingRatio: v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:      v.GetBool("telemetry.insecure"),
			ExportLogs:    v.GetBool("telemetry.export_logs"),

			ProfilingEnabled: v.GetBool("telemetry.profiling_enabled"),
			ProfilingAddress: v.GetString("telemetry.profiling_address"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "arruti-production"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Europe/Madrid"
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
	// Without a remote URL there is nothing to talk to, so local runs get the demo gateway
	if cfg.Gateway.Mode == "" {
		if cfg.Gateway.BaseURL != "" {
			cfg.Gateway.Mode = GatewayModeHTTP
		} else {
			cfg.Gateway.Mode = GatewayModeDemo
		}
	}
	if cfg.Gateway.Timeout == 0 {
		cfg.Gateway.Timeout = 20 * time.Second
	}
	if cfg.Gateway.RateLimitRPS == 0 {
		cfg.Gateway.RateLimitRPS = 5
	}
	if cfg.Gateway.RateLimitBurst == 0 {
		cfg.Gateway.RateLimitBurst = 10
	}
	if cfg.Gateway.DemoSeed == 0 {
		cfg.Gateway.DemoSeed = 1
	}
	if cfg.Gateway.DemoOrders == 0 {
		cfg.Gateway.DemoOrders = 40
	}
	if cfg.Sync.PollInterval == 0 {
		cfg.Sync.PollInterval = 30 * time.Second
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "memory"
	}
	if cfg.Cache.StatsTTL == 0 {
		cfg.Cache.StatsTTL = 5 * time.Minute
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = "sqlite"
	}
	if cfg.Journal.DSN == "" && cfg.Journal.Driver == "sqlite" {
		cfg.Journal.DSN = "journal.db"
	}
	if cfg.Journal.MaxOpenConns == 0 {
		cfg.Journal.MaxOpenConns = 10
	}
	if cfg.Journal.MaxIdleConns == 0 {
		cfg.Journal.MaxIdleConns = 2
	}
	if cfg.Journal.ConnMaxLifetime == 0 {
		cfg.Journal.ConnMaxLifetime = time.Hour
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.SSEHeartbeat == 0 {
		cfg.HTTP.SSEHeartbeat = 25 * time.Second
	}
	if cfg.HTTP.SSEMaxClients == 0 {
		cfg.HTTP.SSEMaxClients = 200
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 2 << 20 // 2MB
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 20
	}
	if cfg.Urgency.Window == 0 {
		cfg.Urgency.Window = 3 * time.Hour
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "journal"
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Gateway.Mode {
	case GatewayModeHTTP:
		if c.Gateway.BaseURL == "" {
			return fmt.Errorf("gateway.base_url is required when gateway.mode is %q", GatewayModeHTTP)
		}
		u, err := url.Parse(c.Gateway.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("gateway.base_url must be an absolute URL, got %q", c.Gateway.BaseURL)
		}
	case GatewayModeDemo:
	default:
		return fmt.Errorf("gateway.mode must be %q or %q, got %q", GatewayModeHTTP, GatewayModeDemo, c.Gateway.Mode)
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone %q: %w", c.App.Timezone, err)
	}
	if c.Gateway.DemoOrders < 0 || c.Gateway.DemoLatency < 0 {
		return fmt.Errorf("gateway.demo_orders and gateway.demo_latency cannot be negative")
	}
	if c.Gateway.RateLimitRPS < 0 {
		return fmt.Errorf("gateway.rate_limit_rps cannot be negative")
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("http.rate_limit_rps cannot be negative")
	}
	if c.Sync.PollInterval < time.Second {
		return fmt.Errorf("sync.poll_interval must be at least 1s, got %s", c.Sync.PollInterval)
	}

	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.driver must be memory or redis, got %q", c.Cache.Driver)
	}

	if c.Journal.Enabled {
		switch c.Journal.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("journal.driver must be sqlite or postgres, got %q", c.Journal.Driver)
		}
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal.dsn is required when the journal is enabled")
		}
		if c.Journal.MaxIdleConns > c.Journal.MaxOpenConns {
			return fmt.Errorf("journal.max_idle_conns (%d) cannot exceed journal.max_open_conns (%d)",
				c.Journal.MaxIdleConns, c.Journal.MaxOpenConns)
		}
	}

	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingAddress == "" {
		return fmt.Errorf("telemetry.profiling_address is required when profiling is enabled")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Gateway.Mode != GatewayModeHTTP {
			return fmt.Errorf("gateway.mode must be %q in production", GatewayModeHTTP)
		}
		if !strings.HasPrefix(c.Gateway.BaseURL, "https://") {
			return fmt.Errorf("gateway.base_url must use https in production")
		}
		if c.Journal.Enabled && c.Journal.Driver != "postgres" {
			return fmt.Errorf("journal.driver must be postgres in production (or disable the journal)")
		}
	}

	return nil
}

// Location returns the bakery's time zone, falling back to the local zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
