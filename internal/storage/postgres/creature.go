package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/creature"
	"github.com/cory-johannsen/arena/internal/game/element"
)

// ErrCreatureNotFound is returned when a creature lookup yields no results.
var ErrCreatureNotFound = errors.New("creature not found")

// ErrCreatureNameTaken is returned when creating a creature with a name already used by the owner.
var ErrCreatureNameTaken = errors.New("creature name already taken")

// CreatureRepository provides creature persistence operations.
type CreatureRepository struct {
	db *pgxpool.Pool
}

// NewCreatureRepository creates a CreatureRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCreatureRepository(db *pgxpool.Pool) *CreatureRepository {
	return &CreatureRepository{db: db}
}

const creatureColumns = `id, owner_id, name, element, hp, atk, def, spc, spd,
	       move_ids, sprite, level, xp, wins, losses, created_at`

// Create inserts a new creature and returns it with ID and timestamp set.
//
// Precondition: c must pass creature.Validate; c.OwnerID must be non-empty.
// Postcondition: Returns the created creature with ID set, or
// ErrCreatureNameTaken when the owner already has a creature of that name.
func (r *CreatureRepository) Create(ctx context.Context, c *creature.Record) (*creature.Record, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO creatures
			(owner_id, name, element, hp, atk, def, spc, spd,
			 move_ids, sprite, level, xp, wins, losses)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING `+creatureColumns,
		c.OwnerID, c.Name, string(c.Element),
		c.BaseStats.HP, c.BaseStats.Atk, c.BaseStats.Def, c.BaseStats.Spc, c.BaseStats.Spd,
		c.MoveIDs[:], c.Sprite, c.Level, c.XP, c.Wins, c.Losses,
	)
	out, err := scanCreature(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCreatureNameTaken
		}
		return nil, fmt.Errorf("inserting creature: %w", err)
	}
	return out, nil
}

// GetByID retrieves a creature by its primary key.
//
// Postcondition: Returns the Record or ErrCreatureNotFound.
func (r *CreatureRepository) GetByID(ctx context.Context, id string) (*creature.Record, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+creatureColumns+` FROM creatures WHERE id = $1`, id)
	out, err := scanCreature(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCreatureNotFound
		}
		return nil, fmt.Errorf("getting creature: %w", err)
	}
	return out, nil
}

// ListByOwner returns all creatures for the given owner, ordered by created_at.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CreatureRepository) ListByOwner(ctx context.Context, ownerID string) ([]*creature.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+creatureColumns+` FROM creatures
		WHERE owner_id = $1 ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing creatures: %w", err)
	}
	defer rows.Close()

	records := make([]*creature.Record, 0)
	for rows.Next() {
		rec, err := scanCreature(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning creature row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FetchSnapshot returns the battle-relevant view of a creature, or (nil, nil)
// when the creature is unknown. Implements arena.CreatureStore.
func (r *CreatureRepository) FetchSnapshot(ctx context.Context, creatureID string) (*arena.CreatureSnapshot, error) {
	rec, err := r.GetByID(ctx, creatureID)
	if errors.Is(err, ErrCreatureNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &arena.CreatureSnapshot{
		ID:        rec.ID,
		Name:      rec.Name,
		Sprite:    rec.Sprite,
		Element:   rec.Element,
		BaseStats: rec.BaseStats,
		MoveIDs:   rec.MoveIDs,
		Level:     rec.Level,
	}, nil
}

// ApplyResult records a battle outcome: the win/loss tally, experience, and
// any level-ups. The row is locked for the duration so concurrent battle
// endings cannot lose progress. Implements arena.CreatureStore.
//
// Postcondition: Returns nil after the outcome is durably applied, or
// ErrCreatureNotFound.
func (r *CreatureRepository) ApplyResult(ctx context.Context, creatureID string, won bool, opponentLevel int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning result transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rec creature.Record
	err = tx.QueryRow(ctx, `
		SELECT level, xp, wins, losses FROM creatures WHERE id = $1 FOR UPDATE`,
		creatureID,
	).Scan(&rec.Level, &rec.XP, &rec.Wins, &rec.Losses)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCreatureNotFound
		}
		return fmt.Errorf("locking creature row: %w", err)
	}

	rec.ApplyBattleResult(opponentLevel, won)

	_, err = tx.Exec(ctx, `
		UPDATE creatures SET level = $2, xp = $3, wins = $4, losses = $5 WHERE id = $1`,
		creatureID, rec.Level, rec.XP, rec.Wins, rec.Losses,
	)
	if err != nil {
		return fmt.Errorf("updating creature progress: %w", err)
	}
	return tx.Commit(ctx)
}

// scanCreature reads one creature row from a QueryRow or Rows cursor.
func scanCreature(row pgx.Row) (*creature.Record, error) {
	var (
		rec     creature.Record
		elem    string
		moveIDs []string
	)
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.Name, &elem,
		&rec.BaseStats.HP, &rec.BaseStats.Atk, &rec.BaseStats.Def,
		&rec.BaseStats.Spc, &rec.BaseStats.Spd,
		&moveIDs, &rec.Sprite, &rec.Level, &rec.XP, &rec.Wins, &rec.Losses,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Element = element.Element(elem)
	if len(moveIDs) != len(rec.MoveIDs) {
		return nil, fmt.Errorf("creature has %d moves, want %d", len(moveIDs), len(rec.MoveIDs))
	}
	copy(rec.MoveIDs[:], moveIDs)
	return &rec, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
