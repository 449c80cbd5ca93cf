package position

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("position not found")
	ErrDuplicate = errors.New("position already exists")
)

// Store is the authoritative in-memory set of monitored positions. Records
// live in the arena map; every read returns a copy so concurrent passes never
// observe callers mutating shared state.
type Store struct {
	mu        sync.RWMutex
	positions map[string]*Position
	logger    *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{
		positions: make(map[string]*Position),
		logger:    logger,
	}
}

// Add registers a position for monitoring. An empty ID is derived from the
// contract coordinates and the add time. Returns the stored copy.
func (s *Store) Add(p Position) (Position, error) {
	if err := p.Validate(); err != nil {
		return Position{}, err
	}

	if p.AddedAt.IsZero() {
		p.AddedAt = time.Now()
	}
	if p.Multiplier == 0 {
		p.Multiplier = 100
	}
	if p.ID == "" {
		p.ID = DeriveID(p.Symbol, p.Strike, p.Expiration, p.AddedAt)
	}
	if p.RiskLevel == "" {
		p.RiskLevel = "LOW"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[p.ID]; ok {
		return Position{}, ErrDuplicate
	}

	stored := p
	s.positions[p.ID] = &stored

	s.logger.Info("position added",
		zap.String("id", p.ID),
		zap.String("symbol", p.Symbol),
		zap.String("side", string(p.Side)),
		zap.String("type", string(p.Type)),
	)

	return p, nil
}

// Remove deletes a position from the arena.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[id]; !ok {
		return ErrNotFound
	}
	delete(s.positions, id)

	s.logger.Info("position removed", zap.String("id", id))
	return nil
}

// Get returns a copy of the position with the given id.
func (s *Store) Get(id string) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[id]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// List returns copies of all positions, ordered by id.
func (s *Store) List() []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns a stable snapshot of position ids for pass iteration. Adds and
// removes after the snapshot do not affect an in-flight pass.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.positions))
	for id := range s.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of monitored positions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

// SetAssessment writes the cached risk fields after a pass. These fields are
// display-only; scoring never reads them back.
func (s *Store) SetAssessment(id, level string, score float64, checkedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[id]
	if !ok {
		return
	}
	p.RiskLevel = level
	p.LastRiskScore = score
	p.LastChecked = checkedAt
}

// CountByLevel buckets positions by their cached risk level.
func (s *Store) CountByLevel() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range s.positions {
		counts[p.RiskLevel]++
	}
	return counts
}
