package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/element"
	"github.com/cory-johannsen/arena/internal/game/rng"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

type combatantT interface {
	require.TestingT
	Helper()
}

func newCombatant(t combatantT, name string, elem element.Element, spd int, moveIDs [4]string) *battle.Combatant {
	t.Helper()
	base := stats.Block{HP: 60, Atk: 65, Def: 55, Spc: 60, Spd: spd}
	c, err := battle.NewCombatant("c-"+name, name, "", elem, 25, base, moveIDs)
	require.NoError(t, err)
	return c
}

func firstOfKind(events []battle.Event, kind battle.EventKind) (battle.Event, bool) {
	for _, e := range events {
		if e.Kind == kind {
			return e, true
		}
	}
	return battle.Event{}, false
}

func countKind(events []battle.Event, kind battle.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewCombatant(t *testing.T) {
	c := newCombatant(t, "EMBER", element.Fire, 60, [4]string{"ember", "fire_fang", "tackle", "growl"})
	assert.Equal(t, c.MaxHP, c.CurrentHP)
	assert.Equal(t, [4]int{25, 15, 35, 40}, c.MovePP)
	assert.Empty(t, c.Status)
	assert.Equal(t, stats.Block{}, c.Stages)
}

func TestNewCombatant_RejectsUnknownMove(t *testing.T) {
	base := stats.Block{HP: 60, Atk: 60, Def: 60, Spc: 60, Spd: 60}
	_, err := battle.NewCombatant("c1", "X", "", element.Fire, 25, base, [4]string{"ember", "nope", "tackle", "growl"})
	assert.ErrorContains(t, err, "unknown move")
}

func TestNewCombatant_RejectsBadLevel(t *testing.T) {
	base := stats.Block{HP: 60, Atk: 60, Def: 60, Spc: 60, Spd: 60}
	_, err := battle.NewCombatant("c1", "X", "", element.Fire, 51, base, [4]string{"ember", "tackle", "slam", "growl"})
	assert.ErrorContains(t, err, "level")
}

// Same generator state, same inputs, same combatant snapshots: identical
// events and identical post-turn state.
func TestResolveTurn_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		slot1 := rapid.IntRange(0, 3).Draw(t, "slot1")
		slot2 := rapid.IntRange(0, 3).Draw(t, "slot2")

		movesA := [4]string{"ember", "quick_attack", "growl", "rest"}
		movesB := [4]string{"water_pulse", "tackle", "harden", "spore_cloud"}

		a1 := *newCombatant(t, "A", element.Fire, 60, movesA)
		a2 := *newCombatant(t, "B", element.Water, 60, movesB)
		b1, b2 := a1, a2

		input := battle.TurnInput{Move1: slot1, Move2: slot2}
		resA := battle.ResolveTurn(&a1, &a2, input, 1, rng.New(seed))
		resB := battle.ResolveTurn(&b1, &b2, input, 1, rng.New(seed))

		if len(resA.Events) != len(resB.Events) {
			t.Fatalf("event counts differ: %d vs %d", len(resA.Events), len(resB.Events))
		}
		if resA.Winner != resB.Winner {
			t.Fatalf("winners differ: %d vs %d", resA.Winner, resB.Winner)
		}
		if a1 != b1 || a2 != b2 {
			t.Fatalf("post-turn state diverged")
		}
	})
}

func TestResolveTurn_FasterSideActsFirst(t *testing.T) {
	fast := newCombatant(t, "FAST", element.Plant, 90, [4]string{"vine_lash", "tackle", "growl", "harden"})
	slow := newCombatant(t, "SLOW", element.Stone, 40, [4]string{"rock_throw", "tackle", "growl", "harden"})

	res := battle.ResolveTurn(fast, slow, battle.TurnInput{}, 1, rng.New(7))
	require.NotEmpty(t, res.Events)
	assert.Equal(t, battle.EventMoveUsed, res.Events[0].Kind)
	assert.Equal(t, 1, res.Events[0].Attacker)
}

func TestResolveTurn_PriorityBeatsSpeed(t *testing.T) {
	slow := newCombatant(t, "JET", element.Water, 30, [4]string{"aqua_jet", "tackle", "growl", "harden"})
	fast := newCombatant(t, "BOLT", element.Spark, 95, [4]string{"bolt", "tackle", "growl", "harden"})

	res := battle.ResolveTurn(slow, fast, battle.TurnInput{}, 1, rng.New(11))
	require.NotEmpty(t, res.Events)
	assert.Equal(t, battle.EventMoveUsed, res.Events[0].Kind)
	assert.Equal(t, 1, res.Events[0].Attacker, "priority move should act before the faster side")
}

func TestResolveTurn_ParalysisHalvesSpeed(t *testing.T) {
	para := newCombatant(t, "PARA", element.Spark, 100, [4]string{"bolt", "tackle", "growl", "harden"})
	para.Status = battle.StatusParalyze
	other := newCombatant(t, "OTHER", element.Stone, 60, [4]string{"rock_throw", "tackle", "growl", "harden"})

	// Effective speeds: 100/2 = 50 vs 60, so the unafflicted side leads.
	res := battle.ResolveTurn(para, other, battle.TurnInput{}, 1, rng.New(3))
	require.NotEmpty(t, res.Events)
	assert.Equal(t, 2, res.Events[0].Attacker)
}

func TestResolveTurn_FaintSuppressesSecondAction(t *testing.T) {
	fast := newCombatant(t, "FAST", element.Plant, 90, [4]string{"vine_lash", "tackle", "growl", "harden"})
	slow := newCombatant(t, "SLOW", element.Stone, 40, [4]string{"rock_throw", "tackle", "growl", "harden"})
	slow.CurrentHP = 1

	res := battle.ResolveTurn(fast, slow, battle.TurnInput{}, 1, rng.New(5))
	assert.Equal(t, 1, res.Winner)
	assert.Equal(t, 1, countKind(res.Events, battle.EventMoveUsed), "fainted side must not act")
	faint, ok := firstOfKind(res.Events, battle.EventFainted)
	require.True(t, ok)
	assert.Equal(t, 2, faint.Target)
}

func TestResolveTurn_DeductsPP(t *testing.T) {
	c1 := newCombatant(t, "ONE", element.Fire, 70, [4]string{"ember", "tackle", "growl", "harden"})
	c2 := newCombatant(t, "TWO", element.Water, 50, [4]string{"water_pulse", "tackle", "growl", "harden"})
	pp1, pp2 := c1.MovePP[0], c2.MovePP[0]

	battle.ResolveTurn(c1, c2, battle.TurnInput{}, 1, rng.New(13))
	assert.Equal(t, pp1-1, c1.MovePP[0])
	assert.Equal(t, pp2-1, c2.MovePP[0])
}

func TestResolveTurn_BurnResidual(t *testing.T) {
	c1 := newCombatant(t, "BURNT", element.Plant, 70, [4]string{"growl", "tackle", "harden", "vine_lash"})
	c1.Status = battle.StatusBurn
	c2 := newCombatant(t, "OTHER", element.Stone, 50, [4]string{"growl", "tackle", "harden", "rock_throw"})

	hpBefore := c1.CurrentHP
	res := battle.ResolveTurn(c1, c2, battle.TurnInput{}, 1, rng.New(17))

	want := c1.MaxHP / 16
	if want < 1 {
		want = 1
	}
	ev, ok := firstOfKind(res.Events, battle.EventStatusDamage)
	require.True(t, ok)
	assert.Equal(t, 1, ev.Target)
	assert.Equal(t, want, ev.Amount)
	assert.Equal(t, battle.StatusBurn, ev.Status)
	// Growl deals no damage, so only the burn touched side 1's HP.
	assert.Equal(t, hpBefore-want, c1.CurrentHP)
}

func TestResolveTurn_ResidualOrderSide1First(t *testing.T) {
	c1 := newCombatant(t, "P1", element.Plant, 70, [4]string{"growl", "tackle", "harden", "vine_lash"})
	c1.Status = battle.StatusPoison
	c2 := newCombatant(t, "P2", element.Stone, 50, [4]string{"growl", "tackle", "harden", "rock_throw"})
	c2.Status = battle.StatusBurn

	res := battle.ResolveTurn(c1, c2, battle.TurnInput{}, 1, rng.New(19))

	var targets []int
	for _, e := range res.Events {
		if e.Kind == battle.EventStatusDamage {
			targets = append(targets, e.Target)
		}
	}
	assert.Equal(t, []int{1, 2}, targets)
}

func TestResolveTurn_SleepCountsDownAndCures(t *testing.T) {
	sleeper := newCombatant(t, "SLEEPY", element.Fire, 70, [4]string{"ember", "tackle", "growl", "harden"})
	sleeper.Status = battle.StatusSleep
	sleeper.StatusTurns = 2
	other := newCombatant(t, "AWAKE", element.Stone, 50, [4]string{"growl", "tackle", "harden", "rock_throw"})

	res := battle.ResolveTurn(sleeper, other, battle.TurnInput{}, 1, rng.New(23))
	_, prevented := firstOfKind(res.Events, battle.EventStatusPreventedMove)
	assert.True(t, prevented)
	assert.Equal(t, battle.StatusSleep, sleeper.Status)
	assert.Equal(t, 1, sleeper.StatusTurns)
	assert.Equal(t, 1, countKind(res.Events, battle.EventMoveUsed))

	res = battle.ResolveTurn(sleeper, other, battle.TurnInput{}, 2, rng.New(29))
	cured, ok := firstOfKind(res.Events, battle.EventStatusCured)
	require.True(t, ok)
	assert.Equal(t, 1, cured.Target)
	assert.Equal(t, battle.StatusSleep, cured.Status)
	assert.Empty(t, sleeper.Status)
	// Waking consumes the turn.
	assert.Equal(t, 1, countKind(res.Events, battle.EventMoveUsed))
}

func TestResolveTurn_StatStageClampSilent(t *testing.T) {
	c1 := newCombatant(t, "GROWLER", element.Plant, 70, [4]string{"growl", "tackle", "harden", "vine_lash"})
	c2 := newCombatant(t, "FLOOR", element.Stone, 50, [4]string{"harden", "tackle", "growl", "rock_throw"})
	c2.Stages.Atk = stats.StageMin

	res := battle.ResolveTurn(c1, c2, battle.TurnInput{}, 1, rng.New(31))

	assert.Equal(t, stats.StageMin, c2.Stages.Atk)
	for _, e := range res.Events {
		if e.Kind == battle.EventStatChanged && e.Target == 2 {
			t.Fatalf("stat_changed emitted for an already-floored stage: %+v", e)
		}
	}
}

func TestResolveTurn_RestHealsAndSleepsSelf(t *testing.T) {
	rester := newCombatant(t, "RESTER", element.Metal, 70, [4]string{"rest", "iron_bash", "harden", "tackle"})
	rester.CurrentHP = 10
	other := newCombatant(t, "OTHER", element.Stone, 50, [4]string{"harden", "tackle", "growl", "rock_throw"})

	res := battle.ResolveTurn(rester, other, battle.TurnInput{}, 1, rng.New(37))

	assert.Equal(t, rester.MaxHP, rester.CurrentHP)
	assert.Equal(t, battle.StatusSleep, rester.Status)
	assert.Equal(t, 2, rester.StatusTurns)
	heal, ok := firstOfKind(res.Events, battle.EventHeal)
	require.True(t, ok)
	assert.Equal(t, 1, heal.Target)
	assert.Equal(t, rester.MaxHP-10, heal.Amount)
	inflicted, ok := firstOfKind(res.Events, battle.EventStatusInflicted)
	require.True(t, ok)
	assert.Equal(t, 1, inflicted.Target)
}

func TestResolveTurn_HexDoublesAgainstStatused(t *testing.T) {
	hexDamage := func(statused bool) int {
		caster := newCombatant(t, "HEXER", element.Spirit, 70, [4]string{"hex", "shadow_bolt", "harden", "tackle"})
		target := newCombatant(t, "TARGET", element.Plant, 50, [4]string{"harden", "tackle", "growl", "vine_lash"})
		if statused {
			target.Status = battle.StatusParalyze
		}
		res := battle.ResolveTurn(caster, target, battle.TurnInput{}, 1, rng.New(41))
		for _, e := range res.Events {
			if e.Kind == battle.EventDamage && e.Target == 2 {
				return e.Amount
			}
		}
		t.Fatalf("no damage event for hex (statused=%v)", statused)
		return 0
	}

	plain := hexDamage(false)
	doubled := hexDamage(true)
	// Identical seeds consume identical rolls; the doubling happens before
	// the random factor, so only the final floor can shave a point.
	assert.GreaterOrEqual(t, doubled, 2*plain)
	assert.LessOrEqual(t, doubled, 2*plain+1)
}

func TestResolveTurn_ExistingStatusBlocksNewOne(t *testing.T) {
	caster := newCombatant(t, "TOXIC", element.Venom, 70, [4]string{"toxic", "poison_fang", "harden", "tackle"})
	target := newCombatant(t, "BURNED", element.Plant, 50, [4]string{"harden", "tackle", "growl", "vine_lash"})
	target.Status = battle.StatusBurn

	for seed := int64(0); seed < 10; seed++ {
		battle.ResolveTurn(caster, target, battle.TurnInput{}, 1, rng.New(seed))
		assert.Equal(t, battle.StatusBurn, target.Status, "seed %d replaced an existing status", seed)
	}
}

func TestResolveTurn_ToxicEventuallyPoisons(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		caster := newCombatant(t, "TOXIC", element.Venom, 70, [4]string{"toxic", "poison_fang", "harden", "tackle"})
		target := newCombatant(t, "CLEAN", element.Plant, 50, [4]string{"harden", "tackle", "growl", "vine_lash"})
		res := battle.ResolveTurn(caster, target, battle.TurnInput{}, 1, rng.New(seed))
		if target.Status == battle.StatusPoison {
			ev, ok := firstOfKind(res.Events, battle.EventStatusInflicted)
			require.True(t, ok)
			assert.Equal(t, 2, ev.Target)
			assert.Equal(t, battle.StatusPoison, ev.Status)
			return
		}
	}
	t.Fatal("toxic never poisoned across 20 seeds")
}

func TestResolveTurn_DamageEventCarriesRemainingHP(t *testing.T) {
	c1 := newCombatant(t, "ONE", element.Plant, 70, [4]string{"vine_lash", "tackle", "growl", "harden"})
	c2 := newCombatant(t, "TWO", element.Stone, 50, [4]string{"harden", "tackle", "growl", "rock_throw"})

	res := battle.ResolveTurn(c1, c2, battle.TurnInput{}, 1, rng.New(43))
	ev, ok := firstOfKind(res.Events, battle.EventDamage)
	require.True(t, ok)
	require.NotNil(t, ev.Remaining)
	assert.Equal(t, c2.CurrentHP, *ev.Remaining)
	assert.GreaterOrEqual(t, ev.Amount, 1)
}

func TestResolveTurn_NeutralMoveAtLevelCap(t *testing.T) {
	atkBase := stats.Block{HP: 60, Atk: 60, Def: 60, Spc: 60, Spd: 60}
	defBase := stats.Block{HP: 60, Atk: 60, Def: 60, Spc: 60, Spd: 40}
	attacker, err := battle.NewCombatant("c-att", "ATTACKER", "", element.Fire, 50, atkBase,
		[4]string{"quick_attack", "ember", "growl", "harden"})
	require.NoError(t, err)
	defender, err := battle.NewCombatant("c-def", "DEFENDER", "", element.Water, 50, defBase,
		[4]string{"growl", "tackle", "harden", "slam"})
	require.NoError(t, err)

	res := battle.ResolveTurn(attacker, defender, battle.TurnInput{}, 1, rng.New(42))

	require.Equal(t, 1, countKind(res.Events, battle.EventDamage))
	ev, _ := firstOfKind(res.Events, battle.EventDamage)
	require.NotNil(t, ev.Remaining)
	assert.Less(t, *ev.Remaining, defender.MaxHP)
	assert.Zero(t, countKind(res.Events, battle.EventSuperEffective))
	assert.Zero(t, countKind(res.Events, battle.EventNotVeryEffective))
}

func TestResolveTurn_DamageAtLeastOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		// Feeble attacker against a hardened wall still chips at least 1.
		weak := stats.Block{HP: 100, Atk: 20, Def: 60, Spc: 20, Spd: 100}
		wall := stats.Block{HP: 100, Atk: 20, Def: 100, Spc: 40, Spd: 40}
		c1, err := battle.NewCombatant("c-weak", "WEAK", "", element.Plant, 5, weak,
			[4]string{"tackle", "growl", "harden", "slam"})
		require.NoError(t, err)
		c2, err := battle.NewCombatant("c-wall", "WALL", "", element.Metal, 50, wall,
			[4]string{"harden", "iron_wall", "growl", "tackle"})
		require.NoError(t, err)

		res := battle.ResolveTurn(c1, c2, battle.TurnInput{Move2: 2}, 1, rng.New(seed))
		if ev, ok := firstOfKind(res.Events, battle.EventDamage); ok {
			if ev.Amount < 1 {
				t.Fatalf("damage event below 1: %+v", ev)
			}
		}
	})
}
