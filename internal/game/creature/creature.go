// Package creature defines the persistent creature record, its validation
// rules, and progression from battle results.
package creature

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"time"

	"github.com/cory-johannsen/arena/internal/game/element"
	"github.com/cory-johannsen/arena/internal/game/moves"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

const (
	// NameMaxLength bounds creature names.
	NameMaxLength = 10
	// SpriteBytes is the decoded size of a creature sprite: a 16x16 grid of
	// 2-bit palette indices, one byte per pixel.
	SpriteBytes = 256
)

var namePattern = regexp.MustCompile(`^[A-Z0-9 ]+$`)

// Record is a persistent creature owned by a player.
type Record struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Name      string          `json:"name"`
	Element   element.Element `json:"element"`
	BaseStats stats.Block     `json:"baseStats"`
	MoveIDs   [4]string       `json:"moveIds"`
	// Sprite is the base64-encoded 256-byte pixel grid.
	Sprite    string    `json:"sprite"`
	Level     int       `json:"level"`
	XP        int       `json:"xp"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks a creature's design against the creation rules, returning
// the first violation found.
//
// Postcondition: a nil return means the name, element, stat allocation,
// move set, and sprite are all acceptable for persistence.
func (r *Record) Validate() error {
	if r.Name == "" || len(r.Name) > NameMaxLength {
		return fmt.Errorf("name must be 1-%d characters", NameMaxLength)
	}
	if !namePattern.MatchString(r.Name) {
		return fmt.Errorf("name must be uppercase letters, numbers, or spaces")
	}

	if !element.Valid(r.Element) {
		return fmt.Errorf("invalid element %q", r.Element)
	}

	if total := r.BaseStats.Total(); total != stats.Budget {
		return fmt.Errorf("stats must total %d (got %d)", stats.Budget, total)
	}
	for _, s := range []struct {
		name  string
		value int
	}{
		{"hp", r.BaseStats.HP},
		{"atk", r.BaseStats.Atk},
		{"def", r.BaseStats.Def},
		{"spc", r.BaseStats.Spc},
		{"spd", r.BaseStats.Spd},
	} {
		if s.value < stats.Min || s.value > stats.Max {
			return fmt.Errorf("%s must be %d-%d (got %d)", s.name, stats.Min, stats.Max, s.value)
		}
	}

	seen := make(map[string]bool, len(r.MoveIDs))
	for _, id := range r.MoveIDs {
		if !moves.Known(id) {
			return fmt.Errorf("unknown move %q", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate move %q", id)
		}
		seen[id] = true
	}

	if r.Sprite == "" {
		return fmt.Errorf("sprite is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(r.Sprite)
	if err != nil {
		return fmt.Errorf("sprite is not valid base64: %w", err)
	}
	if len(decoded) != SpriteBytes {
		return fmt.Errorf("sprite must be %d bytes (got %d)", SpriteBytes, len(decoded))
	}

	return nil
}

// ApplyBattleResult records a win or loss, awards experience, and applies
// level-ups. Experience carries over between levels; leveling stops at the
// cap with any excess retained.
//
// Postcondition: Level never exceeds stats.LevelMax.
func (r *Record) ApplyBattleResult(opponentLevel int, won bool) {
	if won {
		r.Wins++
	} else {
		r.Losses++
	}

	r.XP += stats.XPGain(opponentLevel, won)
	for r.Level < stats.LevelMax {
		needed := stats.XPToNextLevel(r.Level)
		if r.XP < needed {
			break
		}
		r.XP -= needed
		r.Level++
	}
}
