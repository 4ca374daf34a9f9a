package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/stats"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// Player is a persistent player profile with a matchmaking rating.
type Player struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlayerRepository provides player profile persistence operations.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetOrCreate fetches a player profile, creating one at the starting rating
// on first sight.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an existing or freshly created Player.
func (r *PlayerRepository) GetOrCreate(ctx context.Context, id string) (*Player, error) {
	var p Player
	err := r.db.QueryRow(ctx, `
		INSERT INTO players (id, rating)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, rating, wins, losses, created_at`,
		id, stats.InitialRating,
	).Scan(&p.ID, &p.Rating, &p.Wins, &p.Losses, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting player: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a player by ID.
//
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id string) (*Player, error) {
	var p Player
	err := r.db.QueryRow(ctx, `
		SELECT id, rating, wins, losses, created_at FROM players WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Rating, &p.Wins, &p.Losses, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}

// AdjustRating applies a rating delta and the matching win or loss tally,
// creating the profile at the starting rating first if needed. Implements
// arena.PlayerStore.
//
// Postcondition: The player's rating has moved by delta.
func (r *PlayerRepository) AdjustRating(ctx context.Context, playerID string, delta int) error {
	won := 0
	lost := 0
	if delta >= 0 {
		won = 1
	} else {
		lost = 1
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO players (id, rating, wins, losses)
		VALUES ($1, $2 + $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			rating = players.rating + $3,
			wins   = players.wins + $4,
			losses = players.losses + $5`,
		playerID, stats.InitialRating, delta, won, lost,
	)
	if err != nil {
		return fmt.Errorf("adjusting player rating: %w", err)
	}
	return nil
}
