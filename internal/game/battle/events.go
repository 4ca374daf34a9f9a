package battle

import "github.com/cory-johannsen/arena/internal/game/moves"

// EventKind identifies one entry in a turn's event log.
type EventKind string

const (
	EventMoveUsed            EventKind = "move_used"
	EventMiss                EventKind = "miss"
	EventCriticalHit         EventKind = "critical_hit"
	EventSuperEffective      EventKind = "super_effective"
	EventNotVeryEffective    EventKind = "not_very_effective"
	EventDamage              EventKind = "damage"
	EventHeal                EventKind = "heal"
	EventStatusInflicted     EventKind = "status_inflicted"
	EventStatusCured         EventKind = "status_cured"
	EventStatusPreventedMove EventKind = "status_prevented_move"
	EventStatusDamage        EventKind = "status_damage"
	EventStatChanged         EventKind = "stat_changed"
	EventFainted             EventKind = "fainted"
)

// Event is one entry in the ordered event log produced by ResolveTurn.
// Attacker and Target are side numbers (1 or 2); which fields are populated
// depends on Kind.
type Event struct {
	Kind     EventKind       `json:"kind"`
	Attacker int             `json:"attacker,omitempty"`
	Target   int             `json:"target,omitempty"`
	MoveID   string          `json:"moveId,omitempty"`
	Amount   int             `json:"amount,omitempty"`
	Remaining *int           `json:"remaining,omitempty"`
	Status   StatusCondition `json:"status,omitempty"`
	Stat     moves.StatName  `json:"stat,omitempty"`
	Stages   int             `json:"stages,omitempty"`
}

func remainingHP(hp int) *int {
	return &hp
}
