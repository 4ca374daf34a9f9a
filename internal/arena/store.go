package arena

import (
	"context"
	"time"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/element"
	"github.com/cory-johannsen/arena/internal/game/rng"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// Phase is the session actor's state machine position.
type Phase string

const (
	PhaseWaitingForPlayers Phase = "WAITING_FOR_PLAYERS"
	PhaseBattleStart       Phase = "BATTLE_START"
	PhaseWaitingForMoves   Phase = "WAITING_FOR_MOVES"
	PhaseResolving         Phase = "RESOLVING"
	PhaseBattleEnd         Phase = "BATTLE_END"
)

// Side tags used for roles, pending-move keys, and protocol messages.
const (
	RolePlayer1 = "player1"
	RolePlayer2 = "player2"
)

// PlayerInfo identifies one side of a session.
type PlayerInfo struct {
	PlayerID   string `json:"playerId"`
	CreatureID string `json:"creatureId"`
	Rating     int    `json:"rating"`
}

// SessionState is everything a battle session must persist to survive
// eviction: the phase, both combatant snapshots, the in-flight move choices,
// and the serialized RNG streams.
type SessionState struct {
	Phase          Phase              `json:"phase"`
	Mon1           *battle.Combatant  `json:"mon1"`
	Mon2           *battle.Combatant  `json:"mon2"`
	TurnNumber     int                `json:"turnNumber"`
	RNGState       *rng.State         `json:"rngState"`
	PendingMoves   map[string]int     `json:"pendingMoves"`
	Player1        *PlayerInfo        `json:"player1"`
	Player2        *PlayerInfo        `json:"player2"`
	Scripted       bool               `json:"scripted"`
	ScriptRNGState *rng.State         `json:"scriptRngState"`
	ResultsPosted  bool               `json:"resultsPosted"`
	Winner         int                `json:"winner"`
}

// QueueEntry is one waiting player in the matchmaking queue.
type QueueEntry struct {
	PlayerID   string    `json:"playerId"`
	CreatureID string    `json:"creatureId"`
	Rating     int       `json:"rating"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// StateStore persists session actor state keyed by session id. Load returns
// (nil, nil) when no state exists for the id.
type StateStore interface {
	LoadSession(ctx context.Context, id string) (*SessionState, error)
	SaveSession(ctx context.Context, id string, state *SessionState) error
	DeleteSession(ctx context.Context, id string) error
}

// QueueStore persists the singleton matchmaking queue's membership.
type QueueStore interface {
	LoadQueue(ctx context.Context) ([]QueueEntry, error)
	SaveQueue(ctx context.Context, entries []QueueEntry) error
}

// CreatureSnapshot is the creature data a session needs to build a
// combatant, fetched from the external creature store at battle start.
type CreatureSnapshot struct {
	ID        string
	Name      string
	Sprite    string
	Element   element.Element
	BaseStats stats.Block
	MoveIDs   [4]string
	Level     int
}

// CreatureStore is the external collaborator holding persistent creature
// records. FetchSnapshot returns (nil, nil) when the creature is unknown.
type CreatureStore interface {
	FetchSnapshot(ctx context.Context, creatureID string) (*CreatureSnapshot, error)
	ApplyResult(ctx context.Context, creatureID string, won bool, opponentLevel int) error
}

// PlayerStore is the external collaborator holding player profiles. Rating
// adjustments at battle end are best-effort.
type PlayerStore interface {
	AdjustRating(ctx context.Context, playerID string, delta int) error
}
