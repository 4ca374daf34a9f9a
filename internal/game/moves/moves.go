// Package moves defines the static move reference table. The table is built
// once at package initialisation and is read-only thereafter, so it is safe
// to share across all battle sessions without synchronisation.
package moves

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/element"
)

// Category classifies how a move deals damage, if at all.
type Category string

const (
	// Physical moves use the attacker's Atk against the defender's Def.
	Physical Category = "PHYSICAL"
	// Special moves use the attacker's Spc against the defender's Spc.
	Special Category = "SPECIAL"
	// Status moves deal no direct damage.
	Status Category = "STATUS"
)

// EffectKind identifies a secondary move effect.
type EffectKind string

const (
	EffectBurn     EffectKind = "burn"
	EffectPoison   EffectKind = "poison"
	EffectParalyze EffectKind = "paralyze"
	EffectFreeze   EffectKind = "freeze"
	EffectSleep    EffectKind = "sleep"
	EffectStatUp   EffectKind = "stat_up"
	EffectStatDown EffectKind = "stat_down"
	EffectHealSelf EffectKind = "heal_self"
	EffectPriority EffectKind = "priority"
)

// StatName identifies a stat targeted by a stage-changing effect.
type StatName string

const (
	StatAtk StatName = "atk"
	StatDef StatName = "def"
	StatSpc StatName = "spc"
	StatSpd StatName = "spd"
)

// Effect is one secondary effect attached to a move. Which fields are
// meaningful depends on Kind: Chance for status infliction, Stat and Stages
// for stage changes, Value for priority tiers.
type Effect struct {
	Kind   EffectKind
	Chance float64
	Stat   StatName
	Stages int
	Value  int
}

// Move is one immutable move definition.
type Move struct {
	ID       string
	Name     string
	Element  element.Element
	Category Category
	// Power is the base damage term; 0 for status moves.
	Power int
	// PP is the number of uses a combatant starts the battle with.
	PP int
	// Accuracy is the hit chance in percent; 0 means the move never misses.
	Accuracy int
	Effects  []Effect
}

// Priority returns the move's priority tier, or 0 when it has none.
func (m *Move) Priority() int {
	for _, eff := range m.Effects {
		if eff.Kind == EffectPriority {
			return eff.Value
		}
	}
	return 0
}

var table = []Move{
	// ── Neutral ──
	{ID: "tackle", Name: "Tackle", Element: element.Neutral, Category: Physical, Power: 40, PP: 35, Accuracy: 95},
	{ID: "slam", Name: "Slam", Element: element.Neutral, Category: Physical, Power: 80, PP: 20, Accuracy: 75},
	{ID: "quick_attack", Name: "Quick Attack", Element: element.Neutral, Category: Physical, Power: 40, PP: 30, Accuracy: 100,
		Effects: []Effect{{Kind: EffectPriority, Value: 1}}},
	{ID: "growl", Name: "Growl", Element: element.Neutral, Category: Status, PP: 40, Accuracy: 100,
		Effects: []Effect{{Kind: EffectStatDown, Stat: StatAtk, Stages: 1}}},
	{ID: "harden", Name: "Harden", Element: element.Neutral, Category: Status, PP: 30,
		Effects: []Effect{{Kind: EffectStatUp, Stat: StatDef, Stages: 1}}},
	{ID: "rest", Name: "Rest", Element: element.Neutral, Category: Status, PP: 10,
		Effects: []Effect{{Kind: EffectHealSelf}, {Kind: EffectSleep}}},

	// ── Fire ──
	{ID: "ember", Name: "Ember", Element: element.Fire, Category: Special, Power: 40, PP: 25, Accuracy: 100,
		Effects: []Effect{{Kind: EffectBurn, Chance: 0.1}}},
	{ID: "fire_fang", Name: "Fire Fang", Element: element.Fire, Category: Physical, Power: 65, PP: 15, Accuracy: 95,
		Effects: []Effect{{Kind: EffectBurn, Chance: 0.1}}},
	{ID: "inferno", Name: "Inferno", Element: element.Fire, Category: Special, Power: 100, PP: 5, Accuracy: 50,
		Effects: []Effect{{Kind: EffectBurn, Chance: 1.0}}},

	// ── Water ──
	{ID: "aqua_jet", Name: "Aqua Jet", Element: element.Water, Category: Physical, Power: 40, PP: 20, Accuracy: 100,
		Effects: []Effect{{Kind: EffectPriority, Value: 1}}},
	{ID: "water_pulse", Name: "Water Pulse", Element: element.Water, Category: Special, Power: 60, PP: 20, Accuracy: 100,
		Effects: []Effect{{Kind: EffectFreeze, Chance: 0.1}}},

	// ── Plant ──
	{ID: "vine_lash", Name: "Vine Lash", Element: element.Plant, Category: Physical, Power: 45, PP: 25, Accuracy: 100},
	{ID: "solar_beam", Name: "Solar Beam", Element: element.Plant, Category: Special, Power: 120, PP: 10, Accuracy: 100},
	{ID: "spore_cloud", Name: "Spore Cloud", Element: element.Plant, Category: Status, PP: 15, Accuracy: 75,
		Effects: []Effect{{Kind: EffectSleep}}},

	// ── Spark ──
	{ID: "bolt", Name: "Bolt", Element: element.Spark, Category: Special, Power: 40, PP: 30, Accuracy: 100,
		Effects: []Effect{{Kind: EffectParalyze, Chance: 0.1}}},
	{ID: "spark_fang", Name: "Spark Fang", Element: element.Spark, Category: Physical, Power: 65, PP: 15, Accuracy: 95,
		Effects: []Effect{{Kind: EffectParalyze, Chance: 0.1}}},
	{ID: "thunder", Name: "Thunder", Element: element.Spark, Category: Special, Power: 110, PP: 10, Accuracy: 70,
		Effects: []Effect{{Kind: EffectParalyze, Chance: 0.3}}},

	// ── Stone ──
	{ID: "rock_throw", Name: "Rock Throw", Element: element.Stone, Category: Physical, Power: 50, PP: 15, Accuracy: 90},
	{ID: "earthquake", Name: "Earthquake", Element: element.Stone, Category: Physical, Power: 100, PP: 10, Accuracy: 100},
	{ID: "stone_edge", Name: "Stone Edge", Element: element.Stone, Category: Physical, Power: 100, PP: 5, Accuracy: 80},

	// ── Metal ──
	{ID: "iron_bash", Name: "Iron Bash", Element: element.Metal, Category: Physical, Power: 80, PP: 15, Accuracy: 100},
	{ID: "steel_lance", Name: "Steel Lance", Element: element.Metal, Category: Physical, Power: 90, PP: 10, Accuracy: 85},
	{ID: "iron_wall", Name: "Iron Wall", Element: element.Metal, Category: Status, PP: 15,
		Effects: []Effect{{Kind: EffectStatUp, Stat: StatDef, Stages: 2}}},

	// ── Spirit ──
	{ID: "shadow_bolt", Name: "Shadow Bolt", Element: element.Spirit, Category: Special, Power: 80, PP: 15, Accuracy: 100},
	{ID: "nightmare", Name: "Nightmare", Element: element.Spirit, Category: Special, Power: 65, PP: 15, Accuracy: 100,
		Effects: []Effect{{Kind: EffectStatDown, Stat: StatSpc, Stages: 1}}},
	// Hex doubles its damage against a target with any status condition.
	{ID: "hex", Name: "Hex", Element: element.Spirit, Category: Special, Power: 65, PP: 10, Accuracy: 100},

	// ── Venom ──
	{ID: "poison_fang", Name: "Poison Fang", Element: element.Venom, Category: Physical, Power: 50, PP: 15, Accuracy: 100,
		Effects: []Effect{{Kind: EffectPoison, Chance: 0.3}}},
	{ID: "sludge_bomb", Name: "Sludge Bomb", Element: element.Venom, Category: Special, Power: 90, PP: 10, Accuracy: 100,
		Effects: []Effect{{Kind: EffectPoison, Chance: 0.3}}},
	{ID: "toxic", Name: "Toxic", Element: element.Venom, Category: Status, PP: 10, Accuracy: 90,
		Effects: []Effect{{Kind: EffectPoison, Chance: 1.0}}},
	{ID: "acid_spray", Name: "Acid Spray", Element: element.Venom, Category: Special, Power: 40, PP: 20, Accuracy: 100,
		Effects: []Effect{{Kind: EffectStatDown, Stat: StatSpc, Stages: 1}}},
}

var byID = func() map[string]*Move {
	m := make(map[string]*Move, len(table))
	for i := range table {
		if _, dup := m[table[i].ID]; dup {
			panic("moves: duplicate move id " + table[i].ID)
		}
		m[table[i].ID] = &table[i]
	}
	return m
}()

// ByID returns the move definition for id.
//
// Postcondition: returns (move, true) if id is known, or (nil, false).
func ByID(id string) (*Move, bool) {
	m, ok := byID[id]
	return m, ok
}

// MustByID returns the move definition for id, panicking on unknown ids.
// Intended for static data validated at load time.
func MustByID(id string) *Move {
	m, ok := byID[id]
	if !ok {
		panic(fmt.Sprintf("moves: unknown move id %q", id))
	}
	return m
}

// Known reports whether id is a defined move.
func Known(id string) bool {
	_, ok := byID[id]
	return ok
}

// All returns the full move table in definition order.
//
// Postcondition: callers must treat the returned slice as read-only.
func All() []Move {
	return table
}
