package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Greeks    GreeksConfig    `mapstructure:"greeks"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Server    ServerConfig    `mapstructure:"server"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("monitor.check_interval_sec", 60)
	v.SetDefault("monitor.workers", 4)
	v.SetDefault("monitor.auto_hedge", false)
	v.SetDefault("risk.early_assignment_delta", 0.80)
	v.SetDefault("risk.pin_risk_range", 0.02)
	v.SetDefault("risk.dividend_risk_days", 30)
	v.SetDefault("risk.critical_dte", 0)
	v.SetDefault("risk.warning_dte", 7)
	v.SetDefault("portfolio.delta_neutral_range", 50)
	v.SetDefault("portfolio.gamma_risk_limit", 100)
	v.SetDefault("portfolio.theta_decay_alert", 500)
	v.SetDefault("portfolio.vega_exposure_limit", 1000)
	v.SetDefault("greeks.ttl_sec", 60)
	v.SetDefault("greeks.volatility", 0.30)
	v.SetDefault("greeks.risk_free_rate", 0.05)
	v.SetDefault("greeks.fetch_timeout_sec", 5)
	v.SetDefault("broker.base_url", "https://api.broker.example")
	v.SetDefault("broker.timeout_sec", 10)
	v.SetDefault("broker.retry_count", 3)
	v.SetDefault("broker.retry_delay_sec", 2)
	v.SetDefault("broker.rate_per_second", 5)
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.ws_enabled", true)
	v.SetDefault("server.stream_interval_sec", 5)
	v.SetDefault("alerts.journal.enabled", false)
	v.SetDefault("alerts.journal.path", "data/alerts.zst")
	v.SetDefault("alerts.webhook.enabled", false)
	v.SetDefault("alerts.webhook.server", "https://ntfy.sh")
	v.SetDefault("alerts.webhook.priority", "default")
	v.SetDefault("alerts.webhook.tags", "chart_with_downwards_trend")
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("RISKMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("broker.api_key", "RISKMON_BROKER_API_KEY")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
