package alerts

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/risk"
)

type capturedPush struct {
	path     string
	title    string
	priority string
	tags     string
	auth     string
	body     string
}

func TestWebhookNotify(t *testing.T) {
	var mu sync.Mutex
	var pushes []capturedPush

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		pushes = append(pushes, capturedPush{
			path:     r.URL.Path,
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			tags:     r.Header.Get("Tags"),
			auth:     r.Header.Get("Authorization"),
			body:     string(body),
		})
		mu.Unlock()
	}))
	defer server.Close()

	client := NewWebhookClient(WebhookConfig{
		Enabled:  true,
		Server:   server.URL,
		Topic:    "risk-alerts",
		Token:    "tk-secret",
		Priority: "default",
		Tags:     "chart_with_downwards_trend",
	}, zap.NewNop())

	err := client.Notify(context.Background(), Event{
		Kind: EventPositionRisk,
		PositionRisk: &PositionRiskAlert{
			Assessment: risk.Assessment{PositionID: "p1", Symbol: "XYZ", Score: 65, Level: risk.LevelHigh},
		},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	err = client.Notify(context.Background(), Event{
		Kind:      EventAutoClose,
		AutoClose: &AutoCloseTriggered{PositionID: "p1", Assessment: risk.Assessment{Symbol: "XYZ", Score: 90}},
	})
	if err != nil {
		t.Fatalf("Notify auto-close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(pushes) != 2 {
		t.Fatalf("got %d pushes, want 2", len(pushes))
	}

	first := pushes[0]
	if first.path != "/risk-alerts" {
		t.Errorf("path = %s, want /risk-alerts", first.path)
	}
	if first.title != "Risk HIGH: XYZ" {
		t.Errorf("title = %q", first.title)
	}
	if first.priority != "default" {
		t.Errorf("priority = %q, want default", first.priority)
	}
	if first.auth != "Bearer tk-secret" {
		t.Errorf("auth = %q", first.auth)
	}

	// Auto-close escalates the push priority.
	second := pushes[1]
	if second.priority != "high" {
		t.Errorf("auto-close priority = %q, want high", second.priority)
	}
	if second.tags != "chart_with_downwards_trend,rotating_light" {
		t.Errorf("auto-close tags = %q", second.tags)
	}
}

func TestWebhookSkipsLifecycleEvents(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewWebhookClient(WebhookConfig{Server: server.URL, Topic: "t"}, zap.NewNop())

	if err := client.Notify(context.Background(), Event{Kind: EventMonitoringStarted}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if calls != 0 {
		t.Errorf("lifecycle event pushed %d times, want 0", calls)
	}
}

func TestWebhookReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewWebhookClient(WebhookConfig{Server: server.URL, Topic: "t"}, zap.NewNop())

	err := client.Notify(context.Background(), Event{
		Kind:      EventAutoHedge,
		AutoHedge: &AutoHedgeTriggered{PortfolioDelta: 120, Contracts: -1},
	})
	if err == nil {
		t.Error("5xx response did not surface an error")
	}
}

func TestNewNotifierDisabled(t *testing.T) {
	n := NewNotifier(WebhookConfig{Enabled: false}, zap.NewNop())
	if _, ok := n.(*NoopNotifier); !ok {
		t.Errorf("disabled config produced %T, want NoopNotifier", n)
	}
	if err := n.Notify(context.Background(), Event{Kind: EventAutoClose}); err != nil {
		t.Errorf("noop notify errored: %v", err)
	}
}
