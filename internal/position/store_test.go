package position

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func validPosition() Position {
	return Position{
		Symbol:     "XYZ",
		Strike:     100,
		Expiration: time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC),
		Type:       Call,
		Side:       Short,
		Quantity:   1,
	}
}

func TestStoreAddDefaults(t *testing.T) {
	s := NewStore(zap.NewNop())

	stored, err := s.Add(validPosition())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if stored.ID == "" {
		t.Error("id not derived")
	}
	if stored.Multiplier != 100 {
		t.Errorf("multiplier = %d, want 100", stored.Multiplier)
	}
	if stored.RiskLevel != "LOW" {
		t.Errorf("risk level = %q, want LOW", stored.RiskLevel)
	}
	if stored.AddedAt.IsZero() {
		t.Error("added-at not stamped")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestStoreAddRejectsInvalid(t *testing.T) {
	s := NewStore(zap.NewNop())

	bad := validPosition()
	bad.Quantity = 0
	if _, err := s.Add(bad); err == nil {
		t.Error("zero quantity accepted")
	}

	bad = validPosition()
	bad.Side = "NAKED"
	if _, err := s.Add(bad); err == nil {
		t.Error("unknown side accepted")
	}

	if s.Len() != 0 {
		t.Errorf("rejected positions were stored, Len = %d", s.Len())
	}
}

func TestStoreAddDuplicate(t *testing.T) {
	s := NewStore(zap.NewNop())

	p := validPosition()
	p.ID = "fixed-id"
	if _, err := s.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add(p); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate add returned %v, want ErrDuplicate", err)
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(zap.NewNop())

	p := validPosition()
	p.ID = "fixed-id"
	if _, err := s.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Remove("fixed-id"); err != nil {
		t.Errorf("Remove: %v", err)
	}
	if err := s.Remove("fixed-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove returned %v, want ErrNotFound", err)
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore(zap.NewNop())

	p := validPosition()
	p.ID = "fixed-id"
	if _, err := s.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, ok := s.Get("fixed-id")
	if !ok {
		t.Fatal("Get missed a stored position")
	}

	// Mutating the returned value must not leak into the arena.
	got.Symbol = "MUTATED"
	again, _ := s.Get("fixed-id")
	if again.Symbol != "XYZ" {
		t.Errorf("arena record mutated through a returned copy: %q", again.Symbol)
	}
}

func TestStoreListSorted(t *testing.T) {
	s := NewStore(zap.NewNop())

	for _, id := range []string{"c", "a", "b"} {
		p := validPosition()
		p.ID = id
		if _, err := s.Add(p); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("List returned %d, want 3", len(list))
	}
	for i, want := range []string{"a", "b", "c"} {
		if list[i].ID != want {
			t.Errorf("list[%d].ID = %q, want %q", i, list[i].ID, want)
		}
	}
}

func TestStoreIDsSnapshotStable(t *testing.T) {
	s := NewStore(zap.NewNop())

	p := validPosition()
	p.ID = "a"
	if _, err := s.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ids := s.IDs()

	// Removing after the snapshot leaves the snapshot intact.
	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("snapshot changed after remove: %v", ids)
	}
}

func TestStoreSetAssessment(t *testing.T) {
	s := NewStore(zap.NewNop())

	p := validPosition()
	p.ID = "a"
	if _, err := s.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}

	checked := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	s.SetAssessment("a", "HIGH", 65, checked)

	got, _ := s.Get("a")
	if got.RiskLevel != "HIGH" || got.LastRiskScore != 65 || !got.LastChecked.Equal(checked) {
		t.Errorf("assessment not applied: %+v", got)
	}

	// Unknown id is a no-op.
	s.SetAssessment("missing", "CRITICAL", 99, checked)

	counts := s.CountByLevel()
	if counts["HIGH"] != 1 || len(counts) != 1 {
		t.Errorf("CountByLevel = %v, want map[HIGH:1]", counts)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p := validPosition()
			p.Strike = 100 + float64(n)
			if _, err := s.Add(p); err != nil {
				t.Errorf("Add: %v", err)
			}
			s.List()
			s.IDs()
			s.CountByLevel()
		}(i)
	}
	wg.Wait()

	if s.Len() != 8 {
		t.Errorf("Len = %d, want 8", s.Len())
	}
}
