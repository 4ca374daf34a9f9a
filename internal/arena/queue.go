package arena

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Matchmaking tuning. The rating tolerance starts at baseTolerance and
// widens by toleranceStep every toleranceInterval of the shorter of a
// candidate pair's wait times.
const (
	baseTolerance     = 50
	toleranceStep     = 25
	toleranceInterval = 10 * time.Second
)

// QueueDeps bundles the matchmaking queue's collaborators.
type QueueDeps struct {
	Log   *zap.Logger
	Store QueueStore

	RetryInterval time.Duration
	// CloseDelay is how long matched connections stay open after the match
	// notification before the queue closes them.
	CloseDelay time.Duration

	// Now and NewSessionID are injectable for tests.
	Now          func() time.Time
	NewSessionID func() string
}

func (d *QueueDeps) fillDefaults() {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.RetryInterval == 0 {
		d.RetryInterval = 5 * time.Second
	}
	if d.CloseDelay == 0 {
		d.CloseDelay = time.Second
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewSessionID == nil {
		d.NewSessionID = uuid.NewString
	}
}

// Queue is the singleton matchmaking actor. Entries are persisted on every
// membership change so a restarted process resumes with the same queue; the
// retry timer is the only source of time-driven re-entry.
type Queue struct {
	deps QueueDeps
	log  *zap.Logger

	mu      sync.Mutex
	loaded  bool
	entries []QueueEntry
	conns   map[string]Conn
	retry   *time.Timer
}

// NewQueue builds the matchmaking queue actor.
func NewQueue(deps QueueDeps) *Queue {
	deps.fillDefaults()
	return &Queue{
		deps:  deps,
		log:   deps.Log.Named("queue"),
		conns: make(map[string]Conn),
	}
}

// load makes the persisted membership resident. Idempotent.
func (q *Queue) load(ctx context.Context) error {
	if q.loaded {
		return nil
	}
	entries, err := q.deps.Store.LoadQueue(ctx)
	if err != nil {
		return err
	}
	q.entries = entries
	q.loaded = true
	return nil
}

func (q *Queue) save(ctx context.Context) error {
	if err := q.deps.Store.SaveQueue(ctx, q.entries); err != nil {
		q.log.Error("failed to persist queue", zap.Error(err))
		return err
	}
	return nil
}

// Size reports the number of waiting entries.
func (q *Queue) Size(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(ctx); err != nil {
		return 0, err
	}
	return len(q.entries), nil
}

// Join appends a waiting player and immediately attempts a match. A player
// already waiting has their entry replaced, keeping the original join time.
func (q *Queue) Join(ctx context.Context, conn Conn, playerID, creatureID string, rating int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(ctx); err != nil {
		return err
	}

	entry := QueueEntry{
		PlayerID:   playerID,
		CreatureID: creatureID,
		Rating:     rating,
		JoinedAt:   q.deps.Now(),
	}
	replaced := false
	for i := range q.entries {
		if q.entries[i].PlayerID == playerID {
			entry.JoinedAt = q.entries[i].JoinedAt
			q.entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		q.entries = append(q.entries, entry)
	}
	q.conns[playerID] = conn
	if err := q.save(ctx); err != nil {
		return err
	}

	q.sendTo(playerID, QueueJoinedMessage{Type: MsgQueueJoined, Position: len(q.entries)})
	q.log.Info("player joined queue",
		zap.String("player_id", playerID),
		zap.Int("rating", rating),
		zap.Int("queue_size", len(q.entries)))
	return q.tryMatch(ctx)
}

// Leave removes a waiting player. A no-op for unknown or already-matched
// players.
func (q *Queue) Leave(ctx context.Context, playerID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(ctx); err != nil {
		return err
	}
	delete(q.conns, playerID)
	for i := range q.entries {
		if q.entries[i].PlayerID == playerID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			q.log.Info("player left queue", zap.String("player_id", playerID))
			return q.save(ctx)
		}
	}
	return nil
}

// Tolerance returns the rating window for a pair given the shorter of their
// wait times.
func Tolerance(minWait time.Duration) int {
	if minWait < 0 {
		minWait = 0
	}
	return baseTolerance + toleranceStep*int(minWait/toleranceInterval)
}

// tryMatch scans rating-adjacent pairs and matches the first within
// tolerance; otherwise it schedules a retry. Caller holds the mutex.
func (q *Queue) tryMatch(ctx context.Context) error {
	if len(q.entries) < 2 {
		if len(q.entries) == 1 {
			q.armRetry()
		}
		return nil
	}

	now := q.deps.Now()
	sorted := make([]QueueEntry, len(q.entries))
	copy(sorted, q.entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rating < sorted[j].Rating })

	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		minWait := min(now.Sub(a.JoinedAt), now.Sub(b.JoinedAt))
		gap := b.Rating - a.Rating
		if gap > Tolerance(minWait) {
			continue
		}

		sessionID := q.deps.NewSessionID()
		q.log.Info("match found",
			zap.String("session_id", sessionID),
			zap.String("player1", a.PlayerID),
			zap.String("player2", b.PlayerID),
			zap.Int("rating_gap", gap))

		msg := MatchFoundMessage{Type: MsgMatchFound, SessionID: sessionID}
		q.sendTo(a.PlayerID, msg)
		q.sendTo(b.PlayerID, msg)

		q.removeEntries(a.PlayerID, b.PlayerID)
		q.closeLater(a.PlayerID, b.PlayerID)
		return q.save(ctx)
	}

	q.armRetry()
	return nil
}

func (q *Queue) removeEntries(playerIDs ...string) {
	drop := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		drop[id] = true
	}
	kept := q.entries[:0]
	for _, e := range q.entries {
		if !drop[e.PlayerID] {
			kept = append(kept, e)
		}
	}
	q.entries = kept
}

// closeLater closes matched connections after a short delay so the match
// notification flushes first.
func (q *Queue) closeLater(playerIDs ...string) {
	conns := make([]Conn, 0, len(playerIDs))
	for _, id := range playerIDs {
		if c, ok := q.conns[id]; ok {
			conns = append(conns, c)
			delete(q.conns, id)
		}
	}
	time.AfterFunc(q.deps.CloseDelay, func() {
		for _, c := range conns {
			_ = c.Close()
		}
	})
}

// armRetry schedules the next match attempt. The retry is a no-op once the
// queue has emptied.
func (q *Queue) armRetry() {
	if q.retry != nil {
		q.retry.Stop()
	}
	q.retry = time.AfterFunc(q.deps.RetryInterval, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if !q.loaded || len(q.entries) == 0 {
			return
		}
		if err := q.tryMatch(context.Background()); err != nil {
			q.log.Error("retry match failed", zap.Error(err))
		}
	})
}

func (q *Queue) sendTo(playerID string, msg any) {
	conn, ok := q.conns[playerID]
	if !ok {
		return
	}
	if err := conn.Send(msg); err != nil {
		q.log.Debug("send failed", zap.String("player_id", playerID), zap.Error(err))
	}
}
