// Package arena hosts the battle session and matchmaking queue actors. Each
// actor processes one message at a time and persists its full state after
// every transition, so a process restart between messages is invisible to
// clients.
package arena

import (
	"encoding/json"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/element"
)

// Client message types.
const (
	MsgSubmitMove = "submit_move"
	MsgForfeit    = "forfeit"
	MsgJoinQueue  = "join_queue"
)

// Server message types.
const (
	MsgBattleStart          = "battle_start"
	MsgTurnResult           = "turn_result"
	MsgBattleEnd            = "battle_end"
	MsgOpponentDisconnected = "opponent_disconnected"
	MsgQueueJoined          = "queue_joined"
	MsgMatchFound           = "match_found"
	MsgError                = "error"
)

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type       string `json:"type"`
	MoveIndex  int    `json:"moveIndex"`
	PlayerID   string `json:"playerId"`
	CreatureID string `json:"creatureId"`
	Rating     int    `json:"rating"`
}

// ParseClientMessage decodes a raw client frame.
func ParseClientMessage(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CombatantView is the reduced snapshot sent to clients. Stat values and
// stage modifiers stay server-side.
type CombatantView struct {
	Name      string          `json:"name"`
	Sprite    string          `json:"sprite"`
	Element   element.Element `json:"element"`
	Level     int             `json:"level"`
	MaxHP     int             `json:"maxHp"`
	CurrentHP int             `json:"currentHp"`
	MoveIDs   [4]string       `json:"moveIds"`
	MovePP    [4]int          `json:"movePp"`
}

// NewCombatantView reduces a combatant to its client-visible fields.
func NewCombatantView(c *battle.Combatant) CombatantView {
	return CombatantView{
		Name:      c.Name,
		Sprite:    c.Sprite,
		Element:   c.Element,
		Level:     c.Level,
		MaxHP:     c.MaxHP,
		CurrentHP: c.CurrentHP,
		MoveIDs:   c.MoveIDs,
		MovePP:    c.MovePP,
	}
}

// BattleStartMessage announces the initial snapshot pair to one side.
type BattleStartMessage struct {
	Type       string        `json:"type"`
	You        CombatantView `json:"you"`
	Opponent   CombatantView `json:"opponent"`
	YourRole   string        `json:"yourRole"`
	TurnNumber int           `json:"turnNumber"`
}

// TurnResultMessage carries one resolved turn's event log and both updated
// views.
type TurnResultMessage struct {
	Type       string         `json:"type"`
	TurnNumber int            `json:"turnNumber"`
	Events     []battle.Event `json:"events"`
	You        CombatantView  `json:"you"`
	Opponent   CombatantView  `json:"opponent"`
}

// BattleEndMessage reports the terminal outcome to one side.
type BattleEndMessage struct {
	Type         string `json:"type"`
	Winner       string `json:"winner"`
	XPGained     int    `json:"xpGained"`
	RatingChange int    `json:"ratingChange"`
}

// OpponentDisconnectedMessage tells the remaining side its opponent dropped.
type OpponentDisconnectedMessage struct {
	Type string `json:"type"`
}

// QueueJoinedMessage acknowledges a queue join with the current position.
type QueueJoinedMessage struct {
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// MatchFoundMessage hands a matched pair their shared session id.
type MatchFoundMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// ErrorMessage reports a non-fatal problem to one client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
