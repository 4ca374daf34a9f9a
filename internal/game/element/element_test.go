package element_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/game/element"
)

func TestEffectiveness_FireMatchups(t *testing.T) {
	assert.Equal(t, 2.0, element.Effectiveness(element.Fire, element.Plant))
	assert.Equal(t, 2.0, element.Effectiveness(element.Fire, element.Metal))
	assert.Equal(t, 0.5, element.Effectiveness(element.Fire, element.Water))
	assert.Equal(t, 0.5, element.Effectiveness(element.Fire, element.Stone))
	assert.Equal(t, 1.0, element.Effectiveness(element.Fire, element.Fire))
}

func TestEffectiveness_NeutralAlwaysOne(t *testing.T) {
	for _, def := range element.All {
		assert.Equal(t, 1.0, element.Effectiveness(element.Neutral, def), "NEUTRAL vs %s", def)
	}
}

// Every element is neutral against itself except SPIRIT, which is super
// effective against other spirits.
func TestEffectiveness_SelfMatchups(t *testing.T) {
	for _, e := range element.All {
		want := 1.0
		if e == element.Spirit {
			want = 2.0
		}
		assert.Equal(t, want, element.Effectiveness(e, e), "%s vs itself", e)
	}
}

func TestEffectiveness_WaterMatchups(t *testing.T) {
	assert.Equal(t, 2.0, element.Effectiveness(element.Water, element.Fire))
	assert.Equal(t, 2.0, element.Effectiveness(element.Water, element.Stone))
	assert.Equal(t, 0.5, element.Effectiveness(element.Water, element.Plant))
	assert.Equal(t, 0.5, element.Effectiveness(element.Water, element.Spark))
}

func TestEffectiveness_UnlistedPairIsNeutral(t *testing.T) {
	assert.Equal(t, 1.0, element.Effectiveness(element.Spark, element.Spirit))
	assert.Equal(t, 1.0, element.Effectiveness(element.Venom, element.Fire))
}

func TestEffectiveness_OnlyKnownMultipliers(t *testing.T) {
	for _, atk := range element.All {
		for _, def := range element.All {
			m := element.Effectiveness(atk, def)
			if m != 0.5 && m != 1.0 && m != 2.0 {
				t.Errorf("Effectiveness(%s, %s) = %v, want 0.5, 1, or 2", atk, def, m)
			}
		}
	}
}

func TestParse(t *testing.T) {
	e, err := element.Parse("FIRE")
	require.NoError(t, err)
	assert.Equal(t, element.Fire, e)

	_, err = element.Parse("LAVA")
	assert.Error(t, err)

	// Neutral is a move element only, never a creature element.
	_, err = element.Parse("NEUTRAL")
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	for _, e := range element.All {
		assert.True(t, element.Valid(e))
	}
	assert.False(t, element.Valid(element.Neutral))
	assert.False(t, element.Valid(element.Element("")))
}
