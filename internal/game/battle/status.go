package battle

import "github.com/cory-johannsen/arena/internal/game/rng"

// actCheck is the outcome of the pre-action status gate.
type actCheck struct {
	canAct      bool
	cured       bool
	statusTurns int
}

// checkCanAct applies the pre-action status gate for a combatant.
//
// Paralysis blocks the action 25% of the time. Sleep blocks until its turn
// counter runs out, curing on the turn it reaches zero. Freeze thaws with 20%
// probability each turn and blocks otherwise. Burn and poison never block.
func checkCanAct(status StatusCondition, statusTurns int, gen *rng.Generator) actCheck {
	switch status {
	case StatusParalyze:
		return actCheck{canAct: !gen.Chance(0.25)}
	case StatusSleep:
		if statusTurns <= 1 {
			return actCheck{canAct: false, cured: true}
		}
		return actCheck{canAct: false, statusTurns: statusTurns - 1}
	case StatusFreeze:
		thawed := gen.Chance(0.2)
		return actCheck{canAct: thawed, cured: thawed}
	default:
		return actCheck{canAct: true}
	}
}

// burnResidual is the end-of-turn burn damage: floor(maxHP/16), minimum 1.
func burnResidual(maxHP int) int {
	return max(1, maxHP/16)
}

// poisonResidual is the end-of-turn poison damage: floor(maxHP/8), minimum 1.
func poisonResidual(maxHP int) int {
	return max(1, maxHP/8)
}

// residualDamage returns the end-of-turn damage for a status, 0 if none.
func residualDamage(status StatusCondition, maxHP int) int {
	switch status {
	case StatusBurn:
		return burnResidual(maxHP)
	case StatusPoison:
		return poisonResidual(maxHP)
	default:
		return 0
	}
}
