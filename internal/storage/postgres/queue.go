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

// queueRowID is the primary key of the single matchmaking queue row.
const queueRowID = 1

// QueueStateRepository persists the matchmaking queue's membership as a
// single JSONB row. Implements arena.QueueStore.
type QueueStateRepository struct {
	db *pgxpool.Pool
}

// NewQueueStateRepository creates a QueueStateRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewQueueStateRepository(db *pgxpool.Pool) *QueueStateRepository {
	return &QueueStateRepository{db: db}
}

// LoadQueue fetches the persisted queue membership. An absent row is an
// empty queue.
func (r *QueueStateRepository) LoadQueue(ctx context.Context) ([]arena.QueueEntry, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT entries FROM matchmaking_queue WHERE id = $1`, queueRowID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading queue state: %w", err)
	}

	var entries []arena.QueueEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding queue state: %w", err)
	}
	return entries, nil
}

// SaveQueue upserts the queue membership.
//
// Postcondition: A subsequent LoadQueue returns an equal membership.
func (r *QueueStateRepository) SaveQueue(ctx context.Context, entries []arena.QueueEntry) error {
	if entries == nil {
		entries = []arena.QueueEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding queue state: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO matchmaking_queue (id, entries, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET entries = EXCLUDED.entries, updated_at = NOW()`,
		queueRowID, raw,
	)
	if err != nil {
		return fmt.Errorf("saving queue state: %w", err)
	}
	return nil
}
