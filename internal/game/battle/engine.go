package battle

import (
	"github.com/cory-johannsen/arena/internal/game/element"
	"github.com/cory-johannsen/arena/internal/game/moves"
	"github.com/cory-johannsen/arena/internal/game/rng"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// Damage tuning constants.
const (
	StabMultiplier = 1.5
	CritChance     = 1.0 / 16
	CritMultiplier = 2
)

// TurnInput carries each side's selected move slot (0-3).
type TurnInput struct {
	Move1 int
	Move2 int
}

// TurnResult is the outcome of one resolved turn. Winner is 0 while the
// battle continues, or the winning side number once a combatant faints.
type TurnResult struct {
	TurnNumber int     `json:"turnNumber"`
	Events     []Event `json:"events"`
	Winner     int     `json:"winner,omitempty"`
}

// calcDamage computes damage for a single damaging move, consuming generator
// rolls for the critical check and the random factor. Arithmetic floors at
// each step; reordering the multipliers changes edge-case values.
func calcDamage(attacker, defender *Combatant, move *moves.Move, gen *rng.Generator) (int, []Event) {
	var events []Event

	if move.Category == moves.Status {
		return 0, events
	}

	physical := move.Category == moves.Physical
	var atk, def int
	if physical {
		atk = stats.ApplyStage(attacker.Stats.Atk, attacker.Stages.Atk)
		def = stats.ApplyStage(defender.Stats.Def, defender.Stages.Def)
	} else {
		atk = stats.ApplyStage(attacker.Stats.Spc, attacker.Stages.Spc)
		def = stats.ApplyStage(defender.Stats.Spc, defender.Stages.Spc)
	}

	// Burn halves physical attack.
	if attacker.Status == StatusBurn && physical {
		atk /= 2
	}

	crit := 1
	if gen.Chance(CritChance) {
		crit = CritMultiplier
		events = append(events, Event{Kind: EventCriticalHit})
	}

	damage := int((float64(2*attacker.Level*crit)/5+2)*float64(move.Power)*float64(atk)/float64(def)/50) + 2

	// Same-type attack bonus.
	if move.Element != element.Neutral && move.Element == attacker.Element {
		damage = int(float64(damage) * StabMultiplier)
	}

	effectiveness := element.Effectiveness(move.Element, defender.Element)
	damage = int(float64(damage) * effectiveness)
	if effectiveness > 1 {
		events = append(events, Event{Kind: EventSuperEffective})
	}
	if effectiveness < 1 {
		events = append(events, Event{Kind: EventNotVeryEffective})
	}

	// Hex doubles against a target with any status condition.
	if move.ID == "hex" && defender.Status != "" {
		damage *= 2
	}

	randomFactor := float64(gen.Range(85, 100)) / 100
	damage = max(1, int(float64(damage)*randomFactor))

	return damage, events
}

// executeMove runs one combatant's action: PP deduction, accuracy, damage,
// and secondary effects, appending to the event log in that order.
func executeMove(attacker, defender *Combatant, slot, attackerNum, defenderNum int, gen *rng.Generator) []Event {
	moveID := attacker.MoveIDs[slot]
	move := moves.MustByID(moveID)

	events := []Event{{Kind: EventMoveUsed, Attacker: attackerNum, MoveID: moveID}}

	attacker.MovePP[slot] = max(0, attacker.MovePP[slot]-1)

	// Accuracy 0 means the move never misses.
	if move.Accuracy > 0 && !gen.Chance(float64(move.Accuracy)/100) {
		return append(events, Event{Kind: EventMiss, Attacker: attackerNum})
	}

	if move.Power > 0 {
		damage, damageEvents := calcDamage(attacker, defender, move, gen)
		events = append(events, damageEvents...)
		defender.CurrentHP = defender.clampHP(defender.CurrentHP - damage)
		events = append(events, Event{
			Kind:      EventDamage,
			Target:    defenderNum,
			Amount:    damage,
			Remaining: remainingHP(defender.CurrentHP),
		})
	}

	for _, eff := range move.Effects {
		switch eff.Kind {
		case moves.EffectBurn, moves.EffectPoison, moves.EffectParalyze, moves.EffectFreeze:
			if defender.Status != "" {
				break
			}
			if gen.Chance(eff.Chance) {
				statusMap := map[moves.EffectKind]StatusCondition{
					moves.EffectBurn:     StatusBurn,
					moves.EffectPoison:   StatusPoison,
					moves.EffectParalyze: StatusParalyze,
					moves.EffectFreeze:   StatusFreeze,
				}
				defender.Status = statusMap[eff.Kind]
				defender.StatusTurns = 0
				events = append(events, Event{Kind: EventStatusInflicted, Target: defenderNum, Status: defender.Status})
			}
		case moves.EffectSleep:
			// Rest puts the user itself to sleep for a fixed two turns;
			// every other sleep move targets the defender.
			if move.ID == "rest" {
				attacker.Status = StatusSleep
				attacker.StatusTurns = 2
				events = append(events, Event{Kind: EventStatusInflicted, Target: attackerNum, Status: StatusSleep})
			} else if defender.Status == "" {
				defender.Status = StatusSleep
				defender.StatusTurns = gen.Range(1, 3)
				events = append(events, Event{Kind: EventStatusInflicted, Target: defenderNum, Status: StatusSleep})
			}
		case moves.EffectStatUp:
			current := attacker.stage(eff.Stat)
			next := stats.ClampStage(current + eff.Stages)
			if next != current {
				attacker.setStage(eff.Stat, next)
				events = append(events, Event{Kind: EventStatChanged, Target: attackerNum, Stat: eff.Stat, Stages: eff.Stages})
			}
		case moves.EffectStatDown:
			current := defender.stage(eff.Stat)
			next := stats.ClampStage(current - eff.Stages)
			if next != current {
				defender.setStage(eff.Stat, next)
				events = append(events, Event{Kind: EventStatChanged, Target: defenderNum, Stat: eff.Stat, Stages: -eff.Stages})
			}
		case moves.EffectHealSelf:
			healed := attacker.MaxHP - attacker.CurrentHP
			attacker.CurrentHP = attacker.MaxHP
			if healed > 0 {
				events = append(events, Event{Kind: EventHeal, Target: attackerNum, Amount: healed})
			}
		}
	}

	if defender.Fainted() {
		events = append(events, Event{Kind: EventFainted, Target: defenderNum})
	}

	return events
}

// resolveAction applies the status gate for one side and, if the combatant
// can act, executes its move.
func resolveAction(attacker, defender *Combatant, slot, attackerNum, defenderNum int, gen *rng.Generator, events []Event) []Event {
	check := checkCanAct(attacker.Status, attacker.StatusTurns, gen)
	if check.cured {
		events = append(events, Event{Kind: EventStatusCured, Target: attackerNum, Status: attacker.Status})
		attacker.Status = ""
		attacker.StatusTurns = 0
	} else if check.statusTurns != 0 {
		attacker.StatusTurns = check.statusTurns
	}

	if check.canAct {
		return append(events, executeMove(attacker, defender, slot, attackerNum, defenderNum, gen)...)
	}
	if !check.cured {
		events = append(events, Event{Kind: EventStatusPreventedMove, Target: attackerNum, Status: attacker.Status})
	}
	return events
}

// ResolveTurn resolves one full turn between two combatants, mutating both
// in place and consuming rolls from gen in a fixed order.
//
// Order of operations: priority tiers, then effective speed, then a 50/50
// roll on ties; the first side's status gate and action; an early faint check
// that suppresses the second action entirely; the second side's status gate
// and action; then residual status damage for side 1 followed by side 2.
//
// Precondition: both slots must be within [0, MoveSlots).
// Postcondition: Winner is nonzero iff a combatant fainted this turn.
func ResolveTurn(mon1, mon2 *Combatant, input TurnInput, turnNumber int, gen *rng.Generator) TurnResult {
	var events []Event

	pri1 := moves.MustByID(mon1.MoveIDs[input.Move1]).Priority()
	pri2 := moves.MustByID(mon2.MoveIDs[input.Move2]).Priority()

	type actor struct {
		mon  *Combatant
		slot int
		num  int
	}
	side1 := actor{mon: mon1, slot: input.Move1, num: 1}
	side2 := actor{mon: mon2, slot: input.Move2, num: 2}

	var first, second actor
	switch {
	case pri1 > pri2:
		first, second = side1, side2
	case pri2 > pri1:
		first, second = side2, side1
	default:
		spd1, spd2 := mon1.effectiveSpeed(), mon2.effectiveSpeed()
		if spd1 > spd2 || (spd1 == spd2 && gen.Chance(0.5)) {
			first, second = side1, side2
		} else {
			first, second = side2, side1
		}
	}

	events = resolveAction(first.mon, second.mon, first.slot, first.num, second.num, gen, events)

	winner := 0
	if mon1.Fainted() {
		winner = 2
	} else if mon2.Fainted() {
		winner = 1
	}

	if winner == 0 {
		events = resolveAction(second.mon, first.mon, second.slot, second.num, first.num, gen, events)
		if mon1.Fainted() {
			winner = 2
		} else if mon2.Fainted() {
			winner = 1
		}
	}

	// Residual damage runs side 1 then side 2, even once a winner is known
	// from the other side fainting this phase.
	if winner == 0 {
		for _, side := range []actor{side1, side2} {
			damage := residualDamage(side.mon.Status, side.mon.MaxHP)
			if damage == 0 {
				continue
			}
			side.mon.CurrentHP = side.mon.clampHP(side.mon.CurrentHP - damage)
			events = append(events, Event{
				Kind:   EventStatusDamage,
				Target: side.num,
				Amount: damage,
				Status: side.mon.Status,
			})
			if side.mon.Fainted() {
				events = append(events, Event{Kind: EventFainted, Target: side.num})
				if side.num == 1 {
					winner = 2
				} else {
					winner = 1
				}
			}
		}
	}

	return TurnResult{TurnNumber: turnNumber, Events: events, Winner: winner}
}
