package config

import (
	"fmt"
	"strings"
)

// InvalidThreshold describes a threshold that failed validation.
type InvalidThreshold struct {
	Key    string
	Value  float64
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Thresholds []InvalidThreshold
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Thresholds) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, t := range e.Thresholds {
		sb.WriteString(fmt.Sprintf("  - %s = %v (%s)\n", t.Key, t.Value, t.Reason))
	}
	return sb.String()
}

// Validate checks every threshold before monitoring starts.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	requirePositive := func(key string, val float64) {
		if val <= 0 {
			errs.add(key, val, "must be > 0")
		}
	}

	requirePositive("monitor.check_interval_sec", float64(c.Monitor.CheckIntervalSec))
	requirePositive("monitor.workers", float64(c.Monitor.Workers))

	if c.Risk.EarlyAssignmentDelta <= 0 || c.Risk.EarlyAssignmentDelta > 1 {
		errs.add("risk.early_assignment_delta", c.Risk.EarlyAssignmentDelta, "must be in (0, 1]")
	}
	if c.Risk.PinRiskRange <= 0 || c.Risk.PinRiskRange >= 1 {
		errs.add("risk.pin_risk_range", c.Risk.PinRiskRange, "must be in (0, 1)")
	}
	if c.Risk.DividendRiskDays < 1 {
		errs.add("risk.dividend_risk_days", float64(c.Risk.DividendRiskDays), "must be >= 1")
	}
	if c.Risk.CriticalDTE < 0 {
		errs.add("risk.critical_dte", float64(c.Risk.CriticalDTE), "must be >= 0")
	}
	if c.Risk.WarningDTE <= c.Risk.CriticalDTE {
		errs.add("risk.warning_dte", float64(c.Risk.WarningDTE), "must be greater than risk.critical_dte")
	}

	requirePositive("portfolio.delta_neutral_range", c.Portfolio.DeltaNeutralRange)
	requirePositive("portfolio.gamma_risk_limit", c.Portfolio.GammaRiskLimit)
	requirePositive("portfolio.theta_decay_alert", c.Portfolio.ThetaDecayAlert)
	requirePositive("portfolio.vega_exposure_limit", c.Portfolio.VegaExposureLimit)

	requirePositive("greeks.ttl_sec", float64(c.Greeks.TTLSec))
	requirePositive("greeks.fetch_timeout_sec", float64(c.Greeks.FetchTimeoutSec))
	if c.Greeks.Volatility <= 0 || c.Greeks.Volatility > 5 {
		errs.add("greeks.volatility", c.Greeks.Volatility, "must be in (0, 5]")
	}
	if c.Greeks.RiskFreeRate < 0 || c.Greeks.RiskFreeRate > 1 {
		errs.add("greeks.risk_free_rate", c.Greeks.RiskFreeRate, "must be in [0, 1]")
	}

	requirePositive("broker.timeout_sec", float64(c.Broker.TimeoutSec))
	requirePositive("broker.rate_per_second", float64(c.Broker.RatePerSecond))
	if c.Broker.RetryCount < 0 {
		errs.add("broker.retry_count", float64(c.Broker.RetryCount), "must be >= 0")
	}

	if c.Alerts.Journal.Enabled && c.Alerts.Journal.Path == "" {
		errs.add("alerts.journal.path", 0, "required when journal is enabled")
	}
	if c.Alerts.Webhook.Enabled && c.Alerts.Webhook.Topic == "" {
		errs.add("alerts.webhook.topic", 0, "required when webhook is enabled")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (e *ValidationErrors) add(key string, val float64, reason string) {
	e.Thresholds = append(e.Thresholds, InvalidThreshold{Key: key, Value: val, Reason: reason})
}
