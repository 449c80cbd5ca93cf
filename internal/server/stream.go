package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/monitor"
)

type summaryEvent struct {
	Summary   monitor.Summary `json:"summary"`
	Timestamp int64           `json:"timestamp"`
	Sequence  uint64          `json:"sequence"`
}

// handleRiskStream streams the risk summary to SSE subscribers at the
// configured interval. Each connection carries its own ticker so a slow
// reader only stalls itself.
func (s *Server) handleRiskStream(w http.ResponseWriter, r *http.Request) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	s.logger.Info("risk stream client connected", zap.String("remote_addr", r.RemoteAddr))

	var sequence uint64

	// Send initial snapshot
	if err := s.sendSummary(w, flusher, "snapshot", &sequence); err != nil {
		s.logger.Debug("failed to send snapshot", zap.Error(err))
		return
	}

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("risk stream client disconnected", zap.String("remote_addr", r.RemoteAddr))
			return
		case <-ticker.C:
			if err := s.sendSummary(w, flusher, "summary", &sequence); err != nil {
				s.logger.Debug("failed to write to stream client", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) sendSummary(w http.ResponseWriter, flusher http.Flusher, eventType string, sequence *uint64) error {
	*sequence++

	payload, err := json.Marshal(summaryEvent{
		Summary:   s.engine.RiskSummary(),
		Timestamp: time.Now().UnixMilli(),
		Sequence:  *sequence,
	})
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", eventType, *sequence, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
