package arena

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cory-johannsen/arena/internal/game/creature"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// MemoryStateStore is an in-process StateStore used by tests and single-node
// deployments without a database. States are stored as JSON so that load
// always returns an independent copy, matching the durability semantics of
// the persistent implementation.
type MemoryStateStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

// NewMemoryStateStore returns an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{sessions: make(map[string][]byte)}
}

func (s *MemoryStateStore) LoadSession(_ context.Context, id string) (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	var state SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &state, nil
}

func (s *MemoryStateStore) SaveSession(_ context.Context, id string, state *SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = raw
	return nil
}

func (s *MemoryStateStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// MemoryQueueStore is an in-process QueueStore.
type MemoryQueueStore struct {
	mu      sync.Mutex
	entries []QueueEntry
}

// NewMemoryQueueStore returns an empty in-memory queue store.
func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{}
}

func (s *MemoryQueueStore) LoadQueue(_ context.Context) ([]QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueueEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryQueueStore) SaveQueue(_ context.Context, entries []QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]QueueEntry, len(entries))
	copy(s.entries, entries)
	return nil
}

// MemoryCreatureStore is an in-process CreatureStore backed by creature
// records, used by tests and single-node deployments.
type MemoryCreatureStore struct {
	mu      sync.Mutex
	records map[string]*creature.Record
}

// NewMemoryCreatureStore returns an empty in-memory creature store.
func NewMemoryCreatureStore() *MemoryCreatureStore {
	return &MemoryCreatureStore{records: make(map[string]*creature.Record)}
}

// Put stores a creature record, keyed by its ID.
func (s *MemoryCreatureStore) Put(rec *creature.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ID] = &cp
}

// Get returns a copy of a stored record, or nil if absent.
func (s *MemoryCreatureStore) Get(id string) *creature.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

func (s *MemoryCreatureStore) FetchSnapshot(_ context.Context, creatureID string) (*CreatureSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[creatureID]
	if !ok {
		return nil, nil
	}
	return &CreatureSnapshot{
		ID:        rec.ID,
		Name:      rec.Name,
		Sprite:    rec.Sprite,
		Element:   rec.Element,
		BaseStats: rec.BaseStats,
		MoveIDs:   rec.MoveIDs,
		Level:     rec.Level,
	}, nil
}

func (s *MemoryCreatureStore) ApplyResult(_ context.Context, creatureID string, won bool, opponentLevel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[creatureID]
	if !ok {
		return fmt.Errorf("creature %s not found", creatureID)
	}
	rec.ApplyBattleResult(opponentLevel, won)
	return nil
}

// MemoryPlayerStore is an in-process PlayerStore tracking ratings only.
type MemoryPlayerStore struct {
	mu      sync.Mutex
	ratings map[string]int
}

// NewMemoryPlayerStore returns an empty in-memory player store.
func NewMemoryPlayerStore() *MemoryPlayerStore {
	return &MemoryPlayerStore{ratings: make(map[string]int)}
}

// Rating returns a player's current rating, defaulting to the initial
// rating for unseen players.
func (s *MemoryPlayerStore) Rating(playerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.ratings[playerID]; ok {
		return r
	}
	return stats.InitialRating
}

func (s *MemoryPlayerStore) AdjustRating(_ context.Context, playerID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ratings[playerID]; !ok {
		s.ratings[playerID] = stats.InitialRating
	}
	s.ratings[playerID] += delta
	return nil
}
