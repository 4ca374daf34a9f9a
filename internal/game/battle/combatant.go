// Package battle implements deterministic turn resolution between two
// combatants. Given the same pair of combatant snapshots, the same move
// selections, and the same generator state, resolution produces identical
// events and identical post-turn state.
package battle

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/element"
	"github.com/cory-johannsen/arena/internal/game/moves"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// MoveSlots is the fixed number of moves a combatant carries into battle.
const MoveSlots = 4

// StatusCondition is an ongoing condition affecting a combatant. The empty
// string means no condition; a combatant holds at most one at a time.
type StatusCondition string

const (
	StatusBurn     StatusCondition = "BURN"
	StatusPoison   StatusCondition = "POISON"
	StatusParalyze StatusCondition = "PARALYZE"
	StatusFreeze   StatusCondition = "FREEZE"
	StatusSleep    StatusCondition = "SLEEP"
)

// Combatant is one creature's complete mutable battle state. It is built
// once when a session starts and mutated in place by ResolveTurn. All fields
// are exported and JSON-tagged so a session can persist and rehydrate mid
// battle without losing progress.
type Combatant struct {
	CreatureID string          `json:"creatureId"`
	Name       string          `json:"name"`
	Sprite     string          `json:"sprite"`
	Element    element.Element `json:"element"`
	Level      int             `json:"level"`

	MoveIDs [MoveSlots]string `json:"moveIds"`
	MovePP  [MoveSlots]int    `json:"movePp"`

	MaxHP     int `json:"maxHp"`
	CurrentHP int `json:"currentHp"`
	// Stats are the level-scaled effective stats, fixed for the battle.
	Stats stats.Block `json:"stats"`

	Status StatusCondition `json:"status,omitempty"`
	// StatusTurns counts down remaining sleep turns; 0 for other conditions.
	StatusTurns int `json:"statusTurns"`
	// Stages holds the transient stat stages, each in [-6, 6]. The HP field
	// is unused.
	Stages stats.Block `json:"stages"`
}

// NewCombatant builds a fresh battle snapshot from creature data.
//
// Precondition: level must be within [stats.LevelMin, stats.LevelMax] and
// every move id must be known.
// Postcondition: the combatant starts at full HP with full PP, no status,
// and neutral stat stages.
func NewCombatant(creatureID, name, sprite string, elem element.Element, level int, base stats.Block, moveIDs [MoveSlots]string) (*Combatant, error) {
	if level < stats.LevelMin || level > stats.LevelMax {
		return nil, fmt.Errorf("level %d outside [%d, %d]", level, stats.LevelMin, stats.LevelMax)
	}
	var pp [MoveSlots]int
	for i, id := range moveIDs {
		m, ok := moves.ByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown move %q in slot %d", id, i)
		}
		pp[i] = m.PP
	}
	effective := stats.Scale(base, level)
	return &Combatant{
		CreatureID: creatureID,
		Name:       name,
		Sprite:     sprite,
		Element:    elem,
		Level:      level,
		MoveIDs:    moveIDs,
		MovePP:     pp,
		MaxHP:      effective.HP,
		CurrentHP:  effective.HP,
		Stats:      effective,
	}, nil
}

// Fainted reports whether the combatant is out of the battle.
func (c *Combatant) Fainted() bool {
	return c.CurrentHP <= 0
}

// HasUsableMove reports whether any move slot has PP remaining.
func (c *Combatant) HasUsableMove() bool {
	for _, pp := range c.MovePP {
		if pp > 0 {
			return true
		}
	}
	return false
}

// clampHP bounds hp to [0, MaxHP].
func (c *Combatant) clampHP(hp int) int {
	if hp < 0 {
		return 0
	}
	if hp > c.MaxHP {
		return c.MaxHP
	}
	return hp
}

// stage returns the current stage for a named stat.
func (c *Combatant) stage(stat moves.StatName) int {
	switch stat {
	case moves.StatAtk:
		return c.Stages.Atk
	case moves.StatDef:
		return c.Stages.Def
	case moves.StatSpc:
		return c.Stages.Spc
	case moves.StatSpd:
		return c.Stages.Spd
	}
	return 0
}

// setStage stores a stage for a named stat without clamping; callers clamp.
func (c *Combatant) setStage(stat moves.StatName, stage int) {
	switch stat {
	case moves.StatAtk:
		c.Stages.Atk = stage
	case moves.StatDef:
		c.Stages.Def = stage
	case moves.StatSpc:
		c.Stages.Spc = stage
	case moves.StatSpd:
		c.Stages.Spd = stage
	}
}

// effectiveSpeed returns speed after stages and the paralysis penalty.
func (c *Combatant) effectiveSpeed() int {
	spd := stats.ApplyStage(c.Stats.Spd, c.Stages.Spd)
	if c.Status == StatusParalyze {
		spd /= 2
	}
	return spd
}
