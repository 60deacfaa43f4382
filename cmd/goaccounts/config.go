package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/spf13/viper"
)

// serverConfig is read from goaccounts.yaml and GOACCOUNTS_* environment
// variables. The environment overrides the file.
type serverConfig struct {
	HTTPAddr        string        `mapstructure:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogPretty       bool          `mapstructure:"LOG_PRETTY"`
	DevMode         bool          `mapstructure:"DEV_MODE"`
	Bearer          bool          `mapstructure:"BEARER"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	DatabaseDSN   string `mapstructure:"DATABASE_DSN"`

	SessionTTL       time.Duration `mapstructure:"SESSION_TTL"`
	RefreshThreshold float64       `mapstructure:"REFRESH_THRESHOLD"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	JWTIssuer        string        `mapstructure:"JWT_ISSUER"`
	CookieSecure     bool          `mapstructure:"COOKIE_SECURE"`

	PasswordPepper    string        `mapstructure:"PASSWORD_PEPPER"`
	PasswordAlgorithm string        `mapstructure:"PASSWORD_ALGORITHM"`
	BcryptCost        int           `mapstructure:"BCRYPT_COST"`
	HashWorkers       int           `mapstructure:"HASH_WORKERS"`
	HashPermitTimeout time.Duration `mapstructure:"HASH_PERMIT_TIMEOUT"`

	Production       bool `mapstructure:"PRODUCTION"`
	MaxLoginAttempts int  `mapstructure:"MAX_LOGIN_ATTEMPTS"`
	IPThrottle       bool `mapstructure:"IP_THROTTLE"`

	MetricsEnabled    bool   `mapstructure:"METRICS_ENABLED"`
	LatencyHistograms bool   `mapstructure:"LATENCY_HISTOGRAMS"`
	OTelMetrics       bool   `mapstructure:"OTEL_METRICS"`
	AuditEnabled      bool   `mapstructure:"AUDIT_ENABLED"`
	AuditFile         string `mapstructure:"AUDIT_FILE"`

	BootstrapUsername string `mapstructure:"BOOTSTRAP_USERNAME"`
	BootstrapPassword string `mapstructure:"BOOTSTRAP_PASSWORD"`
}

// loadConfig reads the optional config file from paths, then the
// environment. A missing file is not an error.
func loadConfig(paths ...string) (*serverConfig, error) {
	v := viper.New()
	v.SetConfigName("goaccounts")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("GOACCOUNTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := goAccounts.DefaultConfig()
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("DEV_MODE", false)
	v.SetDefault("BEARER", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DATABASE_DSN", "file:goaccounts.db?cache=shared")
	v.SetDefault("SESSION_TTL", defaults.Session.TTL)
	v.SetDefault("REFRESH_THRESHOLD", defaults.Session.RefreshThreshold)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "goaccounts")
	v.SetDefault("COOKIE_SECURE", defaults.Cookie.Secure)
	v.SetDefault("PASSWORD_PEPPER", "")
	v.SetDefault("PASSWORD_ALGORITHM", defaults.Password.Algorithm)
	v.SetDefault("BCRYPT_COST", defaults.Password.WorkFactor)
	v.SetDefault("HASH_WORKERS", defaults.Password.Workers)
	v.SetDefault("HASH_PERMIT_TIMEOUT", defaults.Password.PermitTimeout)
	v.SetDefault("PRODUCTION", false)
	v.SetDefault("MAX_LOGIN_ATTEMPTS", defaults.Security.MaxLoginAttempts)
	v.SetDefault("IP_THROTTLE", defaults.Security.EnableIPThrottle)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("LATENCY_HISTOGRAMS", true)
	v.SetDefault("OTEL_METRICS", false)
	v.SetDefault("AUDIT_ENABLED", false)
	v.SetDefault("AUDIT_FILE", "")
	v.SetDefault("BOOTSTRAP_USERNAME", "")
	v.SetDefault("BOOTSTRAP_PASSWORD", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg serverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// engineConfig maps the server settings onto the engine configuration.
func (c *serverConfig) engineConfig() goAccounts.Config {
	cfg := goAccounts.DefaultConfig()
	cfg.Session.TTL = c.SessionTTL
	cfg.Session.RefreshThreshold = c.RefreshThreshold
	cfg.JWT.PrivateKey = []byte(c.JWTSecret)
	cfg.JWT.Issuer = c.JWTIssuer
	cfg.Cookie.Secure = c.CookieSecure
	cfg.Password.Pepper = []byte(c.PasswordPepper)
	cfg.Password.Algorithm = c.PasswordAlgorithm
	cfg.Password.WorkFactor = c.BcryptCost
	cfg.Password.Workers = c.HashWorkers
	cfg.Password.PermitTimeout = c.HashPermitTimeout
	cfg.Security.ProductionMode = c.Production
	cfg.Security.MaxLoginAttempts = c.MaxLoginAttempts
	cfg.Security.EnableIPThrottle = c.IPThrottle
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.LatencyHistograms
	cfg.Audit.Enabled = c.AuditEnabled
	return cfg
}
