package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/arena"
)

// SessionStateRepository persists battle session actor state as JSONB so a
// hibernated session can be rebuilt byte-for-byte on the next connection.
// Implements arena.StateStore.
type SessionStateRepository struct {
	db *pgxpool.Pool
}

// NewSessionStateRepository creates a SessionStateRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSessionStateRepository(db *pgxpool.Pool) *SessionStateRepository {
	return &SessionStateRepository{db: db}
}

// LoadSession fetches persisted session state, or (nil, nil) when the id has
// no saved state.
func (r *SessionStateRepository) LoadSession(ctx context.Context, id string) (*arena.SessionState, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT state FROM battle_sessions WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session state: %w", err)
	}

	var state arena.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	return &state, nil
}

// SaveSession upserts the session's full state.
//
// Postcondition: A subsequent LoadSession for the id returns an equal state.
func (r *SessionStateRepository) SaveSession(ctx context.Context, id string, state *arena.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO battle_sessions (id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()`,
		id, raw,
	)
	if err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}
	return nil
}

// DeleteSession removes a session's persisted state. Deleting an unknown id
// is a no-op.
func (r *SessionStateRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM battle_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session state: %w", err)
	}
	return nil
}
