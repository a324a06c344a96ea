// Package config loads service configuration.
//
// Sources, lowest precedence first:
//  1. defaults
//  2. config.yaml (optional)
//  3. environment variables with standard names (DATABASE_URL, SERVER_PORT, LOG_LEVEL)
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	River    RiverConfig    `mapstructure:"river"`
	Security SecurityConfig `mapstructure:"security"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	API      APIConfig      `mapstructure:"api"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port             int           `mapstructure:"port"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	// UnsafeAllowAllOrigins honours a "*" origin; credentials are then disabled.
	UnsafeAllowAllOrigins bool `mapstructure:"unsafe_allow_all_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// One pool is shared by the repositories, River and migrations.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// DATABASE_URL wins over the individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River queue settings.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// SecurityConfig contains token verification settings.
type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// JWTVerificationKeys are previous secrets still accepted during rotation.
	JWTVerificationKeys []string      `mapstructure:"jwt_verification_keys"`
	JWTIssuer           string        `mapstructure:"jwt_issuer"`
	TokenLifetime       time.Duration `mapstructure:"token_lifetime"`
}

// WorkerConfig contains goroutine pool sizes.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
	NotifyPoolSize  int `mapstructure:"notify_pool_size"`
}

// WorkflowConfig holds the approval thresholds, in whole currency units.
type WorkflowConfig struct {
	AdminOnlyThreshold     int64 `mapstructure:"admin_only_threshold"`
	AutoSubmitThreshold    int64 `mapstructure:"auto_submit_threshold"`
	VarianceInsightPercent int64 `mapstructure:"variance_insight_percent"`
}

// JobsConfig schedules the periodic recompute jobs.
type JobsConfig struct {
	ROIRecomputeInterval      time.Duration `mapstructure:"roi_recompute_interval"`
	InsightGenerationInterval time.Duration `mapstructure:"insight_generation_interval"`
	NotificationRetention     time.Duration `mapstructure:"notification_retention"`
}

// APIConfig toggles request validation against the embedded OpenAPI document.
type APIConfig struct {
	ValidateRequests  bool `mapstructure:"validate_requests"`
	ValidateResponses bool `mapstructure:"validate_responses"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/eventfin")

	// database.max_conns → DATABASE_MAX_CONNS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.ensureSecrets(); err != nil {
		return nil, fmt.Errorf("ensure secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

const minSweepInterval = time.Minute

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.Workflow.AutoSubmitThreshold < 0 || c.Workflow.AdminOnlyThreshold < 0 {
		return fmt.Errorf("workflow thresholds must not be negative")
	}
	if c.Workflow.VarianceInsightPercent <= 0 {
		return fmt.Errorf("workflow.variance_insight_percent must be positive")
	}
	if c.Worker.NotifyPoolSize <= 0 || c.Worker.GeneralPoolSize <= 0 {
		return fmt.Errorf("worker pool sizes must be positive")
	}
	// Zero disables a sweep; anything shorter than a minute floods the queue.
	for _, sweep := range []struct {
		key      string
		interval time.Duration
	}{
		{"jobs.roi_recompute_interval", c.Jobs.ROIRecomputeInterval},
		{"jobs.insight_generation_interval", c.Jobs.InsightGenerationInterval},
	} {
		if sweep.interval < 0 || (sweep.interval > 0 && sweep.interval < minSweepInterval) {
			return fmt.Errorf("%s must be 0 or at least %s", sweep.key, minSweepInterval)
		}
	}
	return nil
}

// ensureSecrets generates a signing secret when none is configured.
// Tokens issued with it do not survive a restart.
func (c *Config) ensureSecrets() error {
	if c.Security.JWTSecret != "" {
		return nil
	}
	secret, err := generateSecureRandomHex(32)
	if err != nil {
		return fmt.Errorf("auto-generate jwt secret: %w", err)
	}
	c.Security.JWTSecret = secret
	logBootstrapWarn(
		"auto-generated security.jwt_secret; set SECURITY_JWT_SECRET for persistence",
		zap.Int("length", len(secret)),
	)
	return nil
}

// logBootstrapWarn logs before the global logger exists.
func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

func generateSecureRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.allow_credentials", true)
	v.SetDefault("server.unsafe_allow_all_origins", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "eventfin")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "eventfin")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 30)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("river.max_workers", 10)
	v.SetDefault("river.completed_job_retention_period", "24h")

	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_verification_keys", []string{})
	v.SetDefault("security.jwt_issuer", "eventfin")
	v.SetDefault("security.token_lifetime", "12h")

	v.SetDefault("worker.general_pool_size", 50)
	v.SetDefault("worker.notify_pool_size", 20)

	v.SetDefault("workflow.admin_only_threshold", 10000)
	v.SetDefault("workflow.auto_submit_threshold", 1000)
	v.SetDefault("workflow.variance_insight_percent", 10)

	v.SetDefault("jobs.roi_recompute_interval", "1h")
	v.SetDefault("jobs.insight_generation_interval", "24h")
	v.SetDefault("jobs.notification_retention", "720h")

	v.SetDefault("api.validate_requests", true)
	v.SetDefault("api.validate_responses", false)
}
