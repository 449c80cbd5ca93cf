package alerts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier pushes critical alerts to an external channel.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// WebhookConfig configures the ntfy-style push target.
type WebhookConfig struct {
	Enabled  bool
	Server   string
	Topic    string
	Token    string
	Priority string
	Tags     string
}

// WebhookClient posts alert summaries to an ntfy topic.
type WebhookClient struct {
	httpClient *http.Client
	config     WebhookConfig
	logger     *zap.Logger
}

func NewWebhookClient(cfg WebhookConfig, logger *zap.Logger) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// Notify sends one alert. Lifecycle events are skipped; everything else is
// summarized into a short push message.
func (c *WebhookClient) Notify(ctx context.Context, ev Event) error {
	title, message := formatEvent(ev)
	if message == "" {
		return nil
	}

	priority := c.config.Priority
	tags := c.config.Tags
	if ev.Kind == EventAutoClose || ev.Kind == EventPortfolioLimit {
		priority = "high"
		tags = tags + ",rotating_light"
	}

	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

func formatEvent(ev Event) (title, message string) {
	switch ev.Kind {
	case EventPositionRisk:
		a := ev.PositionRisk.Assessment
		title = fmt.Sprintf("Risk %s: %s", a.Level, a.Symbol)
		message = fmt.Sprintf("%s scored %.0f (%s)", a.PositionID, a.Score, a.Level)
	case EventPortfolioLimit:
		v := ev.PortfolioLimit
		title = fmt.Sprintf("Portfolio limit: %s", v.Limit)
		message = fmt.Sprintf("%s at %.1f, bound %.1f", v.Limit, v.Observed, v.Bound)
	case EventAutoClose:
		t := ev.AutoClose
		title = fmt.Sprintf("Auto-close: %s", t.Assessment.Symbol)
		message = fmt.Sprintf("%s composite %.0f, close immediately", t.PositionID, t.Assessment.Score)
	case EventAutoHedge:
		t := ev.AutoHedge
		title = "Auto-hedge"
		message = fmt.Sprintf("portfolio delta %.1f, hedge %d contracts", t.PortfolioDelta, t.Contracts)
	}
	return title, message
}

// NoopNotifier is used when push notifications are disabled.
type NoopNotifier struct{}

// Notify is a no-op.
func (n *NoopNotifier) Notify(_ context.Context, _ Event) error {
	return nil
}

// NewNotifier creates the appropriate notifier based on config.
func NewNotifier(cfg WebhookConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewWebhookClient(cfg, logger)
}
