// Package stats provides level-scaled stat calculation, stat-stage
// multipliers, and the experience curve shared by the battle engine and the
// creature store.
package stats

// Stat tuning constants. Base stats are allocated from a fixed budget when a
// creature is created.
const (
	Budget = 300
	Min    = 20
	Max    = 100

	LevelMin = 5
	LevelMax = 50

	StageMin = -6
	StageMax = 6

	InitialRating = 1000
)

// Block holds the five creature stats. Depending on context it carries base
// stats (creature record), level-scaled effective stats (battle), or stage
// modifiers (battle, each field in [StageMin, StageMax]).
type Block struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	Spc int `json:"spc"`
	Spd int `json:"spd"`
}

// Total returns the sum of all five stats, for budget validation.
func (b Block) Total() int {
	return b.HP + b.Atk + b.Def + b.Spc + b.Spd
}

// EffectiveHP scales a base HP stat to a level.
// HP = floor(base*2*level/100) + level + 10 (no IV/EV terms).
func EffectiveHP(base, level int) int {
	return base*2*level/100 + level + 10
}

// EffectiveStat scales a base non-HP stat to a level.
// stat = floor(base*2*level/100) + 5.
func EffectiveStat(base, level int) int {
	return base*2*level/100 + 5
}

// Scale computes all level-scaled effective stats from base stats. The
// result is fixed for the duration of a battle.
func Scale(base Block, level int) Block {
	return Block{
		HP:  EffectiveHP(base.HP, level),
		Atk: EffectiveStat(base.Atk, level),
		Def: EffectiveStat(base.Def, level),
		Spc: EffectiveStat(base.Spc, level),
		Spd: EffectiveStat(base.Spd, level),
	}
}

// ClampStage bounds a stat stage to [StageMin, StageMax].
func ClampStage(stage int) int {
	if stage < StageMin {
		return StageMin
	}
	if stage > StageMax {
		return StageMax
	}
	return stage
}

// StageMultiplier converts a stat stage to its multiplier:
// +1 = 1.5x, +2 = 2x, ...; -1 = 2/3, -2 = 2/4, ...
func StageMultiplier(stage int) float64 {
	s := ClampStage(stage)
	if s >= 0 {
		return float64(2+s) / 2
	}
	return 2 / float64(2-s)
}

// ApplyStage returns a stat adjusted by its stage multiplier, floored.
func ApplyStage(stat, stage int) int {
	return int(float64(stat) * StageMultiplier(stage))
}

// XPToNextLevel returns the experience required to advance from level.
// Simple quadratic curve: level^2 * 4.
func XPToNextLevel(level int) int {
	return level * level * 4
}

// XPGain returns the experience awarded for a battle against an opponent of
// the given level.
func XPGain(opponentLevel int, won bool) int {
	base := 15
	if won {
		base = 50
	}
	return base * opponentLevel / 5
}
