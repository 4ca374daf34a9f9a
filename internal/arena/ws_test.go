package arena_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/testutil"
)

func newWSServer(t *testing.T) (*httptest.Server, *arena.SessionManager, *arena.Queue) {
	t.Helper()
	sessions := arena.NewSessionManager(testDeps(t, storeWithCreatures(t)))
	queue := arena.NewQueue(arena.QueueDeps{
		Store:         arena.NewMemoryQueueStore(),
		RetryInterval: 10 * time.Millisecond,
		CloseDelay:    5 * time.Millisecond,
	})
	handler := arena.NewWSHandler(nil, sessions, queue)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/battle/", func(w http.ResponseWriter, r *http.Request) {
		handler.HandleBattle(w, r, strings.TrimPrefix(r.URL.Path, "/ws/battle/"))
	})
	mux.HandleFunc("/ws/queue", handler.HandleQueue)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, sessions, queue
}

func battleURL(srv *httptest.Server, sessionID string, info arena.PlayerInfo) string {
	return fmt.Sprintf("%s/ws/battle/%s?playerId=%s&creatureId=%s&rating=%d",
		srv.URL, sessionID, info.PlayerID, info.CreatureID, info.Rating)
}

func TestWS_BattleOverWebsocket(t *testing.T) {
	srv, _, _ := newWSServer(t)

	clientA := testutil.NewWSClient(t, battleURL(srv, "ws-battle-1", alice), nil)
	clientB := testutil.NewWSClient(t, battleURL(srv, "ws-battle-1", bob), nil)

	var startA, startB arena.BattleStartMessage
	clientA.ReadUntilType(arena.MsgBattleStart, &startA, 2*time.Second)
	clientB.ReadUntilType(arena.MsgBattleStart, &startB, 2*time.Second)
	assert.Equal(t, arena.RolePlayer1, startA.YourRole)
	assert.Equal(t, arena.RolePlayer2, startB.YourRole)
	assert.Equal(t, startA.You.Name, startB.Opponent.Name)

	clientA.SendJSON(map[string]any{"type": arena.MsgSubmitMove, "moveIndex": 0})
	clientB.SendJSON(map[string]any{"type": arena.MsgSubmitMove, "moveIndex": 0})

	var turnA arena.TurnResultMessage
	clientA.ReadUntilType(arena.MsgTurnResult, &turnA, 2*time.Second)
	assert.Equal(t, 1, turnA.TurnNumber)
	assert.NotEmpty(t, turnA.Events)
}

func TestWS_ForfeitEndsBattle(t *testing.T) {
	srv, _, _ := newWSServer(t)

	clientA := testutil.NewWSClient(t, battleURL(srv, "ws-battle-2", alice), nil)
	clientB := testutil.NewWSClient(t, battleURL(srv, "ws-battle-2", bob), nil)
	clientA.ReadUntilType(arena.MsgBattleStart, nil, 2*time.Second)
	clientB.ReadUntilType(arena.MsgBattleStart, nil, 2*time.Second)

	clientB.SendJSON(map[string]any{"type": arena.MsgForfeit})

	var end arena.BattleEndMessage
	clientA.ReadUntilType(arena.MsgBattleEnd, &end, 2*time.Second)
	assert.Equal(t, arena.RolePlayer1, end.Winner)
	assert.Equal(t, 25, end.RatingChange)
}

func TestWS_FullSessionRejectedBeforeUpgrade(t *testing.T) {
	srv, _, _ := newWSServer(t)

	clientA := testutil.NewWSClient(t, battleURL(srv, "ws-battle-3", alice), nil)
	clientB := testutil.NewWSClient(t, battleURL(srv, "ws-battle-3", bob), nil)
	// Both sides are registered once the battle has started.
	clientA.ReadUntilType(arena.MsgBattleStart, nil, 2*time.Second)
	clientB.ReadUntilType(arena.MsgBattleStart, nil, 2*time.Second)

	intruder := arena.PlayerInfo{PlayerID: "carol", CreatureID: "crt-1", Rating: 1000}
	url := strings.Replace(battleURL(srv, "ws-battle-3", intruder), "http://", "ws://", 1)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestWS_PhaseProbeWithoutUpgrade(t *testing.T) {
	srv, _, _ := newWSServer(t)

	resp, err := http.Get(srv.URL + "/ws/battle/ws-battle-4")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(arena.PhaseWaitingForPlayers), body["phase"])
}

func TestWS_QueueMatchesTwoPlayers(t *testing.T) {
	srv, _, _ := newWSServer(t)

	clientA := testutil.NewWSClient(t, srv.URL+"/ws/queue", nil)
	clientB := testutil.NewWSClient(t, srv.URL+"/ws/queue", nil)

	clientA.SendJSON(map[string]any{
		"type": arena.MsgJoinQueue, "playerId": "alice", "creatureId": "crt-1", "rating": 1000})
	var joined arena.QueueJoinedMessage
	clientA.ReadUntilType(arena.MsgQueueJoined, &joined, 2*time.Second)
	assert.Equal(t, 1, joined.Position)

	clientB.SendJSON(map[string]any{
		"type": arena.MsgJoinQueue, "playerId": "bob", "creatureId": "crt-2", "rating": 1010})

	var matchA, matchB arena.MatchFoundMessage
	clientA.ReadUntilType(arena.MsgMatchFound, &matchA, 2*time.Second)
	clientB.ReadUntilType(arena.MsgMatchFound, &matchB, 2*time.Second)
	assert.Equal(t, matchA.SessionID, matchB.SessionID)
	assert.NotEmpty(t, matchA.SessionID)
}

func TestWS_QueueSizeProbe(t *testing.T) {
	srv, _, _ := newWSServer(t)

	resp, err := http.Get(srv.URL + "/ws/queue")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Zero(t, body["queueSize"])
}
