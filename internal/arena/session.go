package arena

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/creature"
	"github.com/cory-johannsen/arena/internal/game/rng"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

var (
	// ErrSessionFull is returned when a third participant tries to join.
	ErrSessionFull = errors.New("session is full")
	// ErrSessionEnded is returned when connecting to a terminal session.
	ErrSessionEnded = errors.New("session has ended")
)

// Fixed end-of-battle rewards reported to clients.
const (
	battleEndXP      = 50
	ratingDelta      = 25
	scriptedPlayerID = "cpu"
)

// Conn is one client connection attached to an actor. Send must be safe to
// call from the actor's goroutine and from timer callbacks.
type Conn interface {
	Send(v any) error
	Close() error
}

// SessionDeps bundles the collaborators shared by every session actor.
type SessionDeps struct {
	Log       *zap.Logger
	States    StateStore
	Creatures CreatureStore
	// Players is optional; when nil, rating changes are reported to clients
	// but not recorded.
	Players PlayerStore
	// Presets supplies scripted-opponent designs.
	Presets []creature.Preset

	MoveTimeout  time.Duration
	CleanupDelay time.Duration

	// Now and Seed are injectable for tests.
	Now  func() time.Time
	Seed func() int64
}

func (d *SessionDeps) fillDefaults() {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.MoveTimeout == 0 {
		d.MoveTimeout = 30 * time.Second
	}
	if d.CleanupDelay == 0 {
		d.CleanupDelay = 60 * time.Second
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Seed == nil {
		d.Seed = func() int64 { return time.Now().UnixNano() }
	}
}

// Session is one battle's actor. All entry points serialize on the mutex, so
// at most one message (connection, client message, timer) is processed at a
// time. State is persisted after every transition and reloaded on demand, so
// an evicted session resumes transparently.
type Session struct {
	id   string
	deps SessionDeps
	log  *zap.Logger

	mu        sync.Mutex
	state     *SessionState
	gen       *rng.Generator
	scriptGen *rng.Generator
	conns     map[string]Conn
	deadline  *time.Timer
	cleanup   *time.Timer
	onClose   func(id string)
}

// NewSession builds a session actor for the given id. State is not loaded
// until the first message arrives.
func NewSession(id string, deps SessionDeps, onClose func(id string)) *Session {
	deps.fillDefaults()
	return &Session{
		id:      id,
		deps:    deps,
		log:     deps.Log.With(zap.String("session_id", id)),
		conns:   make(map[string]Conn),
		onClose: onClose,
	}
}

// load makes persisted state resident, creating fresh state for an unknown
// id. Idempotent when state is already resident.
func (s *Session) load(ctx context.Context) error {
	if s.state != nil {
		return nil
	}
	stored, err := s.deps.States.LoadSession(ctx, s.id)
	if err != nil {
		return err
	}
	if stored == nil {
		s.state = &SessionState{
			Phase:        PhaseWaitingForPlayers,
			PendingMoves: make(map[string]int),
		}
		return nil
	}
	s.state = stored
	if s.state.PendingMoves == nil {
		s.state.PendingMoves = make(map[string]int)
	}
	if s.state.RNGState != nil {
		s.gen = rng.FromState(*s.state.RNGState)
	}
	if s.state.ScriptRNGState != nil {
		s.scriptGen = rng.FromState(*s.state.ScriptRNGState)
	}
	// Timers do not survive eviction; re-arm the deadline for a full window.
	if s.state.Phase == PhaseWaitingForMoves {
		s.armDeadline()
	}
	s.log.Debug("session state rehydrated", zap.String("phase", string(s.state.Phase)))
	return nil
}

// save persists the resident state, capturing both RNG streams first.
func (s *Session) save(ctx context.Context) error {
	if s.state == nil {
		return nil
	}
	if s.gen != nil {
		st := s.gen.State()
		s.state.RNGState = &st
	}
	if s.scriptGen != nil {
		st := s.scriptGen.State()
		s.state.ScriptRNGState = &st
	}
	if err := s.deps.States.SaveSession(ctx, s.id, s.state); err != nil {
		s.log.Error("failed to persist session state", zap.Error(err))
		return err
	}
	return nil
}

// Phase reports the session's current phase, loading state if needed.
func (s *Session) Phase(ctx context.Context) (Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return "", err
	}
	return s.state.Phase, nil
}

// Joinable reports whether a player could currently join, without mutating
// state. Used by the transport layer to reject doomed upgrades early;
// Connect re-checks under the same lock afterward.
func (s *Session) Joinable(ctx context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	switch {
	case s.state.Phase == PhaseBattleEnd:
		return ErrSessionEnded
	case s.state.Player1 == nil || s.state.Player1.PlayerID == playerID:
		return nil
	case s.state.Scripted:
		return ErrSessionFull
	case s.state.Player2 == nil || s.state.Player2.PlayerID == playerID:
		return nil
	default:
		return ErrSessionFull
	}
}

// Connect attaches a client connection and assigns it a side.
//
// Postcondition: returns the assigned role, ErrSessionFull when both sides
// are taken by other players, or ErrSessionEnded for a terminal session. A
// player reconnecting with their own id reclaims their original side.
func (s *Session) Connect(ctx context.Context, conn Conn, info PlayerInfo, scripted bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return "", err
	}
	if s.state.Phase == PhaseBattleEnd {
		return "", ErrSessionEnded
	}

	var role string
	rejoined := false
	switch {
	case s.state.Player1 != nil && s.state.Player1.PlayerID == info.PlayerID:
		role = RolePlayer1
		rejoined = true
	case s.state.Player1 == nil:
		role = RolePlayer1
		s.state.Player1 = &info
	case s.state.Scripted:
		return "", ErrSessionFull
	case s.state.Player2 != nil && s.state.Player2.PlayerID == info.PlayerID:
		role = RolePlayer2
		rejoined = true
	case s.state.Player2 == nil:
		role = RolePlayer2
		s.state.Player2 = &info
	default:
		return "", ErrSessionFull
	}
	s.conns[role] = conn
	s.log.Info("player connected",
		zap.String("role", role),
		zap.String("player_id", info.PlayerID),
		zap.Bool("rejoined", rejoined))

	if rejoined {
		// A reconnecting player gets the current snapshot pair so eviction
		// and restarts stay invisible.
		if s.state.Mon1 != nil && s.state.Mon2 != nil {
			s.sendBattleStart(role)
		}
		return role, s.save(ctx)
	}

	if scripted && role == RolePlayer1 && s.state.Phase == PhaseWaitingForPlayers {
		if err := s.startScripted(ctx); err != nil {
			return "", err
		}
		return role, nil
	}

	if s.state.Phase == PhaseWaitingForPlayers && s.state.Player1 != nil && s.state.Player2 != nil {
		return role, s.start(ctx)
	}
	return role, s.save(ctx)
}

// start fetches both creatures, builds combatants, and opens turn 1.
func (s *Session) start(ctx context.Context) error {
	snap1, err1 := s.deps.Creatures.FetchSnapshot(ctx, s.state.Player1.CreatureID)
	snap2, err2 := s.deps.Creatures.FetchSnapshot(ctx, s.state.Player2.CreatureID)
	if err1 != nil || err2 != nil || snap1 == nil || snap2 == nil {
		s.log.Error("failed to load creature data",
			zap.NamedError("player1", err1), zap.NamedError("player2", err2))
		s.broadcast(ErrorMessage{Type: MsgError, Message: "failed to load creature data"})
		return s.save(ctx)
	}
	return s.begin(ctx, snap1, snap2)
}

// startScripted selects a preset opponent at the human's level and opens
// turn 1 without a second connection.
func (s *Session) startScripted(ctx context.Context) error {
	s.state.Scripted = true
	s.scriptGen = rng.New(s.deps.Seed())
	s.state.Player2 = &PlayerInfo{
		PlayerID:   scriptedPlayerID,
		CreatureID: scriptedPlayerID,
		Rating:     stats.InitialRating,
	}

	snap1, err := s.deps.Creatures.FetchSnapshot(ctx, s.state.Player1.CreatureID)
	if err != nil || snap1 == nil {
		s.log.Error("failed to load creature data for scripted battle", zap.Error(err))
		s.sendTo(RolePlayer1, ErrorMessage{Type: MsgError, Message: "failed to load creature data"})
		return s.save(ctx)
	}
	if len(s.deps.Presets) == 0 {
		s.sendTo(RolePlayer1, ErrorMessage{Type: MsgError, Message: "no opponents available"})
		return s.save(ctx)
	}
	preset := s.deps.Presets[s.scriptGen.Range(0, len(s.deps.Presets)-1)]
	snap2 := &CreatureSnapshot{
		ID:        scriptedPlayerID,
		Name:      preset.Name,
		Sprite:    preset.Sprite,
		Element:   preset.Element,
		BaseStats: preset.BaseStats,
		MoveIDs:   preset.MoveIDs,
		Level:     snap1.Level,
	}
	return s.begin(ctx, snap1, snap2)
}

func (s *Session) begin(ctx context.Context, snap1, snap2 *CreatureSnapshot) error {
	s.state.Phase = PhaseBattleStart

	mon1, err := battle.NewCombatant(snap1.ID, snap1.Name, snap1.Sprite, snap1.Element, snap1.Level, snap1.BaseStats, snap1.MoveIDs)
	if err == nil {
		s.state.Mon1 = mon1
		s.state.Mon2, err = battle.NewCombatant(snap2.ID, snap2.Name, snap2.Sprite, snap2.Element, snap2.Level, snap2.BaseStats, snap2.MoveIDs)
	}
	if err != nil {
		s.log.Error("invalid combatant data", zap.Error(err))
		s.state.Phase = PhaseWaitingForPlayers
		s.state.Mon1, s.state.Mon2 = nil, nil
		s.broadcast(ErrorMessage{Type: MsgError, Message: "failed to load creature data"})
		return s.save(ctx)
	}

	s.gen = rng.New(s.deps.Seed())
	s.state.TurnNumber = 1
	s.sendBattleStart(RolePlayer1)
	s.sendBattleStart(RolePlayer2)
	s.state.Phase = PhaseWaitingForMoves
	if err := s.save(ctx); err != nil {
		return err
	}
	s.armDeadline()
	s.log.Info("battle started",
		zap.String("creature1", s.state.Mon1.Name),
		zap.String("creature2", s.state.Mon2.Name),
		zap.Bool("scripted", s.state.Scripted))
	return nil
}

func (s *Session) sendBattleStart(role string) {
	you, opponent := s.state.Mon1, s.state.Mon2
	if role == RolePlayer2 {
		you, opponent = opponent, you
	}
	s.sendTo(role, BattleStartMessage{
		Type:       MsgBattleStart,
		You:        NewCombatantView(you),
		Opponent:   NewCombatantView(opponent),
		YourRole:   role,
		TurnNumber: s.state.TurnNumber,
	})
}

// SubmitMove records a side's choice for the in-flight turn. Out-of-phase,
// duplicate, out-of-range, and zero-PP submissions are dropped silently.
func (s *Session) SubmitMove(ctx context.Context, role string, moveIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	if s.state.Phase != PhaseWaitingForMoves {
		return nil
	}
	if moveIndex < 0 || moveIndex >= battle.MoveSlots {
		return nil
	}
	if _, dup := s.state.PendingMoves[role]; dup {
		return nil
	}
	mon := s.state.Mon1
	if role == RolePlayer2 {
		mon = s.state.Mon2
	}
	if mon == nil || mon.MovePP[moveIndex] <= 0 {
		return nil
	}
	s.state.PendingMoves[role] = moveIndex

	// The scripted opponent decides as soon as the human commits, from its
	// own RNG stream.
	if s.state.Scripted && role == RolePlayer1 {
		if _, ok := s.state.PendingMoves[RolePlayer2]; !ok {
			s.state.PendingMoves[RolePlayer2] = pickUsableMove(s.state.Mon2, s.scriptGen)
		}
	}

	_, have1 := s.state.PendingMoves[RolePlayer1]
	_, have2 := s.state.PendingMoves[RolePlayer2]
	if have1 && have2 {
		return s.resolveTurn(ctx)
	}
	return s.save(ctx)
}

// pickUsableMove draws a uniformly random slot among those with PP left,
// falling back to slot 0 when none remain.
func pickUsableMove(mon *battle.Combatant, gen *rng.Generator) int {
	var usable []int
	for i, pp := range mon.MovePP {
		if pp > 0 {
			usable = append(usable, i)
		}
	}
	if len(usable) == 0 {
		return 0
	}
	return usable[gen.Range(0, len(usable)-1)]
}

// resolveTurn drives the engine and broadcasts the outcome. Caller holds the
// mutex and has verified both pending moves are present.
func (s *Session) resolveTurn(ctx context.Context) error {
	s.state.Phase = PhaseResolving
	s.stopDeadline()

	input := battle.TurnInput{
		Move1: s.state.PendingMoves[RolePlayer1],
		Move2: s.state.PendingMoves[RolePlayer2],
	}
	result := battle.ResolveTurn(s.state.Mon1, s.state.Mon2, input, s.state.TurnNumber, s.gen)

	s.sendTo(RolePlayer1, TurnResultMessage{
		Type:       MsgTurnResult,
		TurnNumber: result.TurnNumber,
		Events:     result.Events,
		You:        NewCombatantView(s.state.Mon1),
		Opponent:   NewCombatantView(s.state.Mon2),
	})
	s.sendTo(RolePlayer2, TurnResultMessage{
		Type:       MsgTurnResult,
		TurnNumber: result.TurnNumber,
		Events:     result.Events,
		You:        NewCombatantView(s.state.Mon2),
		Opponent:   NewCombatantView(s.state.Mon1),
	})

	if result.Winner != 0 {
		return s.endBattle(ctx, result.Winner)
	}

	s.state.TurnNumber++
	s.state.PendingMoves = make(map[string]int)
	s.state.Phase = PhaseWaitingForMoves
	if err := s.save(ctx); err != nil {
		return err
	}
	s.armDeadline()
	return nil
}

// Forfeit ends the battle in the opponent's favor. Dropped outside an
// active battle.
func (s *Session) Forfeit(ctx context.Context, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	if s.state.Phase != PhaseWaitingForMoves && s.state.Phase != PhaseResolving {
		return nil
	}
	winner := 2
	if role == RolePlayer2 {
		winner = 1
	}
	s.log.Info("forfeit", zap.String("role", role))
	return s.endBattle(ctx, winner)
}

// Disconnect handles a connection closing. Mid-battle, the remaining side
// wins and is told the opponent dropped.
func (s *Session) Disconnect(ctx context.Context, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	delete(s.conns, role)

	if s.state.Phase != PhaseWaitingForMoves && s.state.Phase != PhaseResolving {
		return s.save(ctx)
	}
	winner := 2
	if role == RolePlayer2 {
		winner = 1
	}
	other := RolePlayer1
	if role == RolePlayer1 {
		other = RolePlayer2
	}
	s.sendTo(other, OpponentDisconnectedMessage{Type: MsgOpponentDisconnected})
	s.log.Info("player disconnected mid-battle", zap.String("role", role))
	return s.endBattle(ctx, winner)
}

// endBattle moves the session to its terminal phase, posts results exactly
// once per real participant, notifies both sides, and schedules cleanup.
// Result-posting failures are logged but never block termination.
func (s *Session) endBattle(ctx context.Context, winner int) error {
	s.state.Phase = PhaseBattleEnd
	s.state.Winner = winner
	s.stopDeadline()

	if !s.state.ResultsPosted {
		s.state.ResultsPosted = true
		s.postResults(ctx, winner)
	}

	winnerRole := RolePlayer1
	if winner == 2 {
		winnerRole = RolePlayer2
	}
	for _, role := range []string{RolePlayer1, RolePlayer2} {
		change := -ratingDelta
		if role == winnerRole {
			change = ratingDelta
		}
		s.sendTo(role, BattleEndMessage{
			Type:         MsgBattleEnd,
			Winner:       winnerRole,
			XPGained:     battleEndXP,
			RatingChange: change,
		})
	}

	if err := s.save(ctx); err != nil {
		return err
	}
	s.scheduleCleanup()
	s.log.Info("battle ended", zap.Int("winner", winner), zap.Int("turns", s.state.TurnNumber))
	return nil
}

// postResults reports win/loss to the creature store and adjusts ratings.
// The scripted opponent never receives a result.
func (s *Session) postResults(ctx context.Context, winner int) {
	if s.state.Player1 != nil && s.state.Mon2 != nil {
		if err := s.deps.Creatures.ApplyResult(ctx, s.state.Player1.CreatureID, winner == 1, s.state.Mon2.Level); err != nil {
			s.log.Warn("failed to apply battle result", zap.String("role", RolePlayer1), zap.Error(err))
		}
	}
	if s.state.Player2 != nil && s.state.Mon1 != nil && !s.state.Scripted {
		if err := s.deps.Creatures.ApplyResult(ctx, s.state.Player2.CreatureID, winner == 2, s.state.Mon1.Level); err != nil {
			s.log.Warn("failed to apply battle result", zap.String("role", RolePlayer2), zap.Error(err))
		}
	}
	if s.deps.Players == nil {
		return
	}
	for i, info := range []*PlayerInfo{s.state.Player1, s.state.Player2} {
		if info == nil || (s.state.Scripted && i == 1) {
			continue
		}
		delta := -ratingDelta
		if winner == i+1 {
			delta = ratingDelta
		}
		if err := s.deps.Players.AdjustRating(ctx, info.PlayerID, delta); err != nil {
			s.log.Warn("failed to adjust rating", zap.String("player_id", info.PlayerID), zap.Error(err))
		}
	}
}

// armDeadline schedules the move-submission deadline for the current turn.
// The callback is a no-op if the session has advanced past the turn it was
// armed for.
func (s *Session) armDeadline() {
	s.stopDeadline()
	turn := s.state.TurnNumber
	s.deadline = time.AfterFunc(s.deps.MoveTimeout, func() {
		s.handleDeadline(turn)
	})
}

func (s *Session) stopDeadline() {
	if s.deadline != nil {
		s.deadline.Stop()
		s.deadline = nil
	}
}

// handleDeadline fills in auto-selected moves for any side that has not
// submitted and resolves the turn.
func (s *Session) handleDeadline(turn int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || s.state.Phase != PhaseWaitingForMoves || s.state.TurnNumber != turn {
		return
	}
	ctx := context.Background()
	s.log.Info("move deadline fired", zap.Int("turn", turn))
	if _, ok := s.state.PendingMoves[RolePlayer1]; !ok && s.state.Mon1 != nil {
		s.state.PendingMoves[RolePlayer1] = pickUsableMove(s.state.Mon1, s.gen)
	}
	if _, ok := s.state.PendingMoves[RolePlayer2]; !ok && s.state.Mon2 != nil {
		s.state.PendingMoves[RolePlayer2] = pickUsableMove(s.state.Mon2, s.gen)
	}
	if err := s.resolveTurn(ctx); err != nil {
		s.log.Error("deadline turn resolution failed", zap.Error(err))
	}
}

// scheduleCleanup arms the post-battle retention timer. When it fires the
// persisted state is discarded and remaining connections closed.
func (s *Session) scheduleCleanup() {
	if s.cleanup != nil {
		s.cleanup.Stop()
	}
	s.cleanup = time.AfterFunc(s.deps.CleanupDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == nil || s.state.Phase != PhaseBattleEnd {
			return
		}
		if err := s.deps.States.DeleteSession(context.Background(), s.id); err != nil {
			s.log.Warn("failed to delete session state", zap.Error(err))
		}
		for role, conn := range s.conns {
			_ = conn.Close()
			delete(s.conns, role)
		}
		if s.onClose != nil {
			s.onClose(s.id)
		}
		s.log.Debug("session cleaned up")
	})
}

func (s *Session) sendTo(role string, msg any) {
	conn, ok := s.conns[role]
	if !ok {
		return
	}
	if err := conn.Send(msg); err != nil {
		s.log.Debug("send failed", zap.String("role", role), zap.Error(err))
	}
}

func (s *Session) broadcast(msg any) {
	for role := range s.conns {
		s.sendTo(role, msg)
	}
}

// SessionManager hands out session actors by id, creating them lazily and
// evicting them after cleanup. Recreating an actor for a known id is safe:
// the actor reloads its persisted state on first use.
type SessionManager struct {
	deps SessionDeps

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager builds a manager sharing deps across all sessions.
func NewSessionManager(deps SessionDeps) *SessionManager {
	deps.fillDefaults()
	return &SessionManager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Session returns the actor for id, creating it if not resident.
func (m *SessionManager) Session(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := NewSession(id, m.deps, m.evict)
	m.sessions[id] = s
	return s
}

// Evict drops an actor from memory without touching its persisted state.
// The next message for the id rehydrates a fresh actor.
func (m *SessionManager) Evict(id string) {
	m.evict(id)
}

func (m *SessionManager) evict(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
