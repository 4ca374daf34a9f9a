package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/stats"
)

func TestEffectiveHP(t *testing.T) {
	// base 60 at level 50: floor(60*2*50/100) + 50 + 10 = 60 + 60 = 120
	assert.Equal(t, 120, stats.EffectiveHP(60, 50))
	// level floor
	assert.Equal(t, 21, stats.EffectiveHP(60, 5))
}

func TestEffectiveStat(t *testing.T) {
	// base 60 at level 50: floor(60*2*50/100) + 5 = 65
	assert.Equal(t, 65, stats.EffectiveStat(60, 50))
	assert.Equal(t, 11, stats.EffectiveStat(60, 5))
}

func TestScale(t *testing.T) {
	base := stats.Block{HP: 55, Atk: 70, Def: 50, Spc: 65, Spd: 60}
	scaled := stats.Scale(base, 50)
	assert.Equal(t, stats.Block{
		HP:  stats.EffectiveHP(55, 50),
		Atk: stats.EffectiveStat(70, 50),
		Def: stats.EffectiveStat(50, 50),
		Spc: stats.EffectiveStat(65, 50),
		Spd: stats.EffectiveStat(60, 50),
	}, scaled)
}

func TestStageMultiplier_KnownValues(t *testing.T) {
	assert.Equal(t, 1.0, stats.StageMultiplier(0))
	assert.Equal(t, 1.5, stats.StageMultiplier(1))
	assert.Equal(t, 2.0, stats.StageMultiplier(2))
	assert.Equal(t, 4.0, stats.StageMultiplier(4))
	assert.InDelta(t, 2.0/3.0, stats.StageMultiplier(-1), 1e-9)
	assert.Equal(t, 0.5, stats.StageMultiplier(-2))
	assert.Equal(t, 0.25, stats.StageMultiplier(-6))
}

func TestStageMultiplier_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, stats.StageMultiplier(6), stats.StageMultiplier(99))
	assert.Equal(t, stats.StageMultiplier(-6), stats.StageMultiplier(-99))
}

func TestClampStage_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stage := rapid.IntRange(-100, 100).Draw(t, "stage")
		c := stats.ClampStage(stage)
		if c < stats.StageMin || c > stats.StageMax {
			t.Fatalf("ClampStage(%d) = %d outside [%d, %d]", stage, c, stats.StageMin, stats.StageMax)
		}
		if stage >= stats.StageMin && stage <= stats.StageMax && c != stage {
			t.Fatalf("ClampStage(%d) = %d altered an in-range stage", stage, c)
		}
	})
}

func TestApplyStage_MonotoneInStage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stat := rapid.IntRange(1, 500).Draw(t, "stat")
		stage := rapid.IntRange(stats.StageMin, stats.StageMax-1).Draw(t, "stage")
		lo := stats.ApplyStage(stat, stage)
		hi := stats.ApplyStage(stat, stage+1)
		if hi < lo {
			t.Fatalf("ApplyStage(%d, %d) = %d > ApplyStage(%d, %d) = %d", stat, stage+1, hi, stat, stage, lo)
		}
	})
}

func TestXPToNextLevel(t *testing.T) {
	assert.Equal(t, 100, stats.XPToNextLevel(5))
	assert.Equal(t, 400, stats.XPToNextLevel(10))
}

func TestXPGain(t *testing.T) {
	assert.Equal(t, 500, stats.XPGain(50, true))
	assert.Equal(t, 150, stats.XPGain(50, false))
	// floor
	assert.Equal(t, 70, stats.XPGain(7, true))
	assert.Equal(t, 21, stats.XPGain(7, false))
}
