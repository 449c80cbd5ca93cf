package alerts

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/risk"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "alerts.zst")

	j, err := NewJournal(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}

	events := []Event{
		{Kind: EventMonitoringStarted},
		{Kind: EventPositionRisk, PositionRisk: &PositionRiskAlert{
			Assessment: risk.Assessment{PositionID: "p1", Symbol: "XYZ", Score: 65, Level: risk.LevelHigh},
		}},
		{Kind: EventAutoHedge, AutoHedge: &AutoHedgeTriggered{PortfolioDelta: 120, Contracts: -1}},
	}
	for _, ev := range events {
		j.Record(ev)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Independent frames concatenate into one readable zstd stream.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var got []Event
	scanner := bufio.NewScanner(dec)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		got = append(got, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != len(events) {
		t.Fatalf("read back %d events, want %d", len(got), len(events))
	}
	if got[1].PositionRisk == nil || got[1].PositionRisk.Assessment.PositionID != "p1" {
		t.Errorf("payload lost in round trip: %+v", got[1])
	}
	if got[2].AutoHedge == nil || got[2].AutoHedge.Contracts != -1 {
		t.Errorf("payload lost in round trip: %+v", got[2])
	}
}

func TestJournalAppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.zst")

	for i := 0; i < 2; i++ {
		j, err := NewJournal(path, zap.NewNop())
		if err != nil {
			t.Fatalf("NewJournal: %v", err)
		}
		j.Record(Event{Kind: EventMonitoringStarted})
		if err := j.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	lines := 0
	scanner := bufio.NewScanner(dec)
	for scanner.Scan() {
		lines++
	}
	if lines != 2 {
		t.Errorf("journal holds %d events after reopen, want 2", lines)
	}
}
