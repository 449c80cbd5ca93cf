package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/alerts"
)

func dialTestHub(t *testing.T) (*Hub, *websocket.Conn, func()) {
	t.Helper()

	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		cancel()
		server.Close()
		t.Fatalf("dial: %v", err)
	}

	return hub, conn, func() {
		conn.Close()
		cancel()
		server.Close()
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
}

func TestHandleWSConnectAndSubscribe(t *testing.T) {
	hub, conn, teardown := dialTestHub(t)
	defer teardown()

	var connected connectedMessage
	readJSON(t, conn, &connected)
	if connected.Type != "connected" || connected.ConnID == "" {
		t.Fatalf("handshake = %+v", connected)
	}

	sub := clientRequest{Action: "subscribe", Group: string(alerts.EventAutoClose)}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var ack ackMessage
	readJSON(t, conn, &ack)
	if ack.Type != "ack" || !ack.Success || ack.Group != string(alerts.EventAutoClose) {
		t.Fatalf("ack = %+v", ack)
	}

	// Joining is processed synchronously by JoinGroup, so the group is
	// active once the ack arrives.
	groups := hub.GetActiveGroups()
	if len(groups) != 1 || groups[0] != string(alerts.EventAutoClose) {
		t.Errorf("active groups = %v", groups)
	}
}

func TestBroadcastReachesOnlySubscribedGroup(t *testing.T) {
	hub, conn, teardown := dialTestHub(t)
	defer teardown()

	var connected connectedMessage
	readJSON(t, conn, &connected)

	if err := conn.WriteJSON(clientRequest{Action: "subscribe", Group: string(alerts.EventAutoClose)}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	var ack ackMessage
	readJSON(t, conn, &ack)

	// A message for another group must not arrive; the subscribed group's
	// message must.
	hub.Broadcast(string(alerts.EventPositionRisk), []byte(`{"kind":"position_risk"}`))
	hub.Broadcast(string(alerts.EventAutoClose), []byte(`{"kind":"auto_close"}`))

	var ev alerts.Event
	readJSON(t, conn, &ev)
	if ev.Kind != alerts.EventAutoClose {
		t.Errorf("received kind %s, want auto_close", ev.Kind)
	}
}

func TestSubscribeRejectsUnknownGroup(t *testing.T) {
	_, conn, teardown := dialTestHub(t)
	defer teardown()

	var connected connectedMessage
	readJSON(t, conn, &connected)

	if err := conn.WriteJSON(clientRequest{Action: "subscribe", Group: "everything"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var ack ackMessage
	readJSON(t, conn, &ack)
	if ack.Success {
		t.Error("unknown group accepted")
	}
}

func TestIsValidGroup(t *testing.T) {
	for _, kind := range alerts.Kinds() {
		if !isValidGroup(string(kind)) {
			t.Errorf("kind %s rejected", kind)
		}
	}
	for _, bad := range []string{"", "all", "POSITION_RISK"} {
		if isValidGroup(bad) {
			t.Errorf("group %q accepted", bad)
		}
	}
}
