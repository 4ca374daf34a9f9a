package arena

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/stats"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients are served from arbitrary origins in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsConn adapts a gorilla connection to the actor Conn interface. Writes are
// serialized because actors and timers send concurrently.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return c.ws.Close()
}

// keepAlive pings the peer until the connection dies.
func (c *wsConn) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if err := c.ping(); err != nil {
			return
		}
	}
}

// WSHandler exposes the session and queue actors over websockets.
type WSHandler struct {
	log      *zap.Logger
	sessions *SessionManager
	queue    *Queue
}

// NewWSHandler builds the websocket front for the given actors.
func NewWSHandler(log *zap.Logger, sessions *SessionManager, queue *Queue) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{log: log, sessions: sessions, queue: queue}
}

// HandleBattle serves one battle session connection. Non-upgrade requests
// get the session's current phase; a full session is rejected with 409
// before the upgrade, a finished one with 410.
func (h *WSHandler) HandleBattle(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx := r.Context()
	session := h.sessions.Session(sessionID)

	if !websocket.IsWebSocketUpgrade(r) {
		phase, err := session.Phase(ctx)
		if err != nil {
			http.Error(w, "failed to load session", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"phase": string(phase)})
		return
	}

	query := r.URL.Query()
	info := PlayerInfo{
		PlayerID:   query.Get("playerId"),
		CreatureID: query.Get("creatureId"),
		Rating:     stats.InitialRating,
	}
	if rating, err := strconv.Atoi(query.Get("rating")); err == nil {
		info.Rating = rating
	}
	scripted := query.Get("cpu") == "true"

	if err := session.Joinable(ctx, info.PlayerID); err != nil {
		switch {
		case errors.Is(err, ErrSessionEnded):
			http.Error(w, "battle has ended", http.StatusGone)
		case errors.Is(err, ErrSessionFull):
			http.Error(w, "battle full", http.StatusConflict)
		default:
			http.Error(w, "failed to load session", http.StatusInternalServerError)
		}
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := &wsConn{ws: ws}

	role, err := session.Connect(ctx, conn, info, scripted)
	if err != nil {
		_ = conn.Send(ErrorMessage{Type: MsgError, Message: err.Error()})
		_ = conn.Close()
		return
	}

	go conn.keepAlive()
	h.battleReadLoop(session, conn, role)
}

// battleReadLoop dispatches client frames to the session actor until the
// connection closes.
func (h *WSHandler) battleReadLoop(session *Session, conn *wsConn, role string) {
	ws := conn.ws
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			_ = session.Disconnect(context.Background(), role)
			_ = ws.Close()
			return
		}
		msg, err := ParseClientMessage(raw)
		if err != nil {
			// Malformed frames never crash the actor.
			continue
		}
		switch msg.Type {
		case MsgSubmitMove:
			if err := session.SubmitMove(context.Background(), role, msg.MoveIndex); err != nil {
				h.log.Warn("submit_move failed", zap.Error(err))
			}
		case MsgForfeit:
			if err := session.Forfeit(context.Background(), role); err != nil {
				h.log.Warn("forfeit failed", zap.Error(err))
			}
		}
	}
}

// HandleQueue serves one matchmaking queue connection. Non-upgrade requests
// get the current queue size.
func (h *WSHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		size, err := h.queue.Size(r.Context())
		if err != nil {
			http.Error(w, "failed to load queue", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"queueSize": size})
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := &wsConn{ws: ws}
	go conn.keepAlive()

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	var joinedAs string
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if joinedAs != "" {
				_ = h.queue.Leave(context.Background(), joinedAs)
			}
			_ = ws.Close()
			return
		}
		msg, err := ParseClientMessage(raw)
		if err != nil {
			continue
		}
		if msg.Type != MsgJoinQueue {
			continue
		}
		if msg.PlayerID == "" || msg.CreatureID == "" {
			_ = conn.Send(ErrorMessage{Type: MsgError, Message: "playerId and creatureId are required"})
			continue
		}
		joinedAs = msg.PlayerID
		if err := h.queue.Join(context.Background(), conn, msg.PlayerID, msg.CreatureID, msg.Rating); err != nil {
			h.log.Warn("queue join failed", zap.Error(err))
			_ = conn.Send(ErrorMessage{Type: MsgError, Message: "failed to join queue"})
		}
	}
}
