package config

// MonitorConfig controls the assessment loop cadence.
type MonitorConfig struct {
	CheckIntervalSec int  `mapstructure:"check_interval_sec"`
	Workers          int  `mapstructure:"workers"`
	AutoHedge        bool `mapstructure:"auto_hedge"`
}

// RiskConfig holds the per-position scoring thresholds.
type RiskConfig struct {
	EarlyAssignmentDelta float64 `mapstructure:"early_assignment_delta"`
	PinRiskRange         float64 `mapstructure:"pin_risk_range"`
	DividendRiskDays     int     `mapstructure:"dividend_risk_days"`
	CriticalDTE          int     `mapstructure:"critical_dte"`
	WarningDTE           int     `mapstructure:"warning_dte"`
}

// PortfolioConfig holds the portfolio-level exposure limits.
type PortfolioConfig struct {
	DeltaNeutralRange float64 `mapstructure:"delta_neutral_range"`
	GammaRiskLimit    float64 `mapstructure:"gamma_risk_limit"`
	ThetaDecayAlert   float64 `mapstructure:"theta_decay_alert"`
	VegaExposureLimit float64 `mapstructure:"vega_exposure_limit"`
}

// GreeksConfig controls the snapshot cache and the estimation fallback.
type GreeksConfig struct {
	TTLSec          int     `mapstructure:"ttl_sec"`
	Volatility      float64 `mapstructure:"volatility"`
	RiskFreeRate    float64 `mapstructure:"risk_free_rate"`
	FetchTimeoutSec int     `mapstructure:"fetch_timeout_sec"`
}

type BrokerConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelaySec int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

type ServerConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Port              string `mapstructure:"port"`
	WSEnabled         bool   `mapstructure:"ws_enabled"`
	StreamIntervalSec int    `mapstructure:"stream_interval_sec"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type WebhookConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`
	Topic    string `mapstructure:"topic"`
	Token    string `mapstructure:"token"`
	Priority string `mapstructure:"priority"`
	Tags     string `mapstructure:"tags"`
}

type AlertsConfig struct {
	Journal JournalConfig `mapstructure:"journal"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}
