package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/polyquant/backtester/internal/core"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// BacktestConfig holds simulation defaults. Decimal values are strings so
// precision survives the config round trip.
type BacktestConfig struct {
	FeeRate        string `mapstructure:"fee_rate"`
	InitialBalance string `mapstructure:"initial_balance"`
	MaxTradeLimit  int    `mapstructure:"max_trade_limit"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    30 * time.Second,
		},
		Backtest: BacktestConfig{
			FeeRate:        "0.001",
			InitialBalance: "10000",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.JobTTLHours < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("job_ttl_hours cannot be negative, got %d", c.Server.JobTTLHours))
	}
	if c.Server.MaxJobs < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_jobs must be at least 1, got %d", c.Server.MaxJobs))
	}

	if c.Backtest.FeeRate != "" {
		fee, err := decimal.NewFromString(c.Backtest.FeeRate)
		if err != nil || fee.IsNegative() {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("fee_rate must be a non-negative decimal, got %q", c.Backtest.FeeRate))
		}
	}
	if c.Backtest.InitialBalance != "" {
		bal, err := decimal.NewFromString(c.Backtest.InitialBalance)
		if err != nil || !bal.IsPositive() {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("initial_balance must be a positive decimal, got %q", c.Backtest.InitialBalance))
		}
	}
	if c.Backtest.MaxTradeLimit < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_trade_limit cannot be negative, got %d", c.Backtest.MaxTradeLimit))
	}

	return nil
}

// FeeRate returns the configured fee rate as a decimal.
func (c *Config) FeeRate() decimal.Decimal {
	fee, err := decimal.NewFromString(c.Backtest.FeeRate)
	if err != nil {
		return decimal.NewFromFloat(0.001)
	}
	return fee
}
