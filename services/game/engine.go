package game

import (
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	game_constants "Candor/constants/game"
	redis_models "Candor/models/redis"
)

// roomEntry is the unit of mutation: one room, its roster and its turn
// state, guarded by a single mutex. Every state-changing operation for the
// room serializes through entry.mu, sweeps included.
type roomEntry struct {
	mu        sync.Mutex
	destroyed bool
	room      *Room
	players   map[string]*Player
	turn      *TurnState
}

// Engine owns every active room. Public operations validate before writing
// anything, so a failed call leaves room state untouched.
type Engine struct {
	mu    sync.RWMutex
	rooms map[string]*roomEntry

	bank     QuestionBank
	notifier Notifier
	audit    AuditTrail

	// now is swapped out by tests
	now func() time.Time
}

func NewEngine(bank QuestionBank, notifier Notifier, audit AuditTrail) *Engine {
	return &Engine{
		rooms:    make(map[string]*roomEntry),
		bank:     bank,
		notifier: notifier,
		audit:    audit,
		now:      time.Now,
	}
}

// CreateRoom allocates a fresh room code, creates the room in the lobby
// state and registers the creator as its host.
func (e *Engine) CreateRoom(hostName, hostPlayerID string, settings RoomSettings) (*Room, *Player, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, nil, newError(KindInvalidArgument, "host name must not be empty")
	}
	if hostPlayerID == "" {
		return nil, nil, newError(KindInvalidArgument, "player id must not be empty")
	}
	if settings.StartLevel == 0 {
		settings.StartLevel = game_constants.DefaultStartLevel
	}
	if settings.StartLevel < game_constants.MinLevel || settings.StartLevel > game_constants.MaxLevel {
		return nil, nil, newError(KindInvalidArgument, "start level must be between %d and %d",
			game_constants.MinLevel, game_constants.MaxLevel)
	}
	if settings.QuestionsPerLevel == 0 {
		settings.QuestionsPerLevel = game_constants.DefaultQuestionsPerLevel
	}
	if settings.QuestionsPerLevel < 1 || settings.QuestionsPerLevel > game_constants.MaxPlayersPerRoom {
		return nil, nil, newError(KindInvalidArgument, "questions per level must be between 1 and %d",
			game_constants.MaxPlayersPerRoom)
	}

	now := e.now()

	token, err := issueSessionToken(hostPlayerID, now)
	if err != nil {
		return nil, nil, err
	}

	host := &Player{
		ID:              hostPlayerID,
		Name:            hostName,
		IsHost:          true,
		JoinedAt:        now,
		LastHeartbeatAt: now,
		ConnectionState: ConnectionStateConnected,
		SessionToken:    token,
	}

	e.mu.Lock()
	var code string
	for attempt := 0; attempt < game_constants.RoomCodeAllocationAttempts; attempt++ {
		candidate := randomRoomCode()
		if _, taken := e.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		e.mu.Unlock()
		return nil, nil, newError(KindExhaustedRetries, "could not allocate a unique room code after %d attempts",
			game_constants.RoomCodeAllocationAttempts)
	}

	room := &Room{
		Code:         code,
		HostPlayerID: hostPlayerID,
		Status:       RoomStatusLobby,
		Settings:     settings,
		CreatedAt:    now,
		Version:      1,
	}
	host.RoomCode = code

	entry := &roomEntry{
		room:    room,
		players: map[string]*Player{hostPlayerID: host},
	}
	e.rooms[code] = entry
	e.mu.Unlock()

	log.Printf("[ROOM] Created room %s (host %q)", code, hostName)

	entry.mu.Lock()
	snap := entry.snapshotLocked()
	entry.mu.Unlock()
	e.publish(redis_models.EventRoomCreated, snap)
	e.auditSafe(func(a AuditTrail) error {
		return a.RoomCreated(code, hostPlayerID, hostName, settings, now)
	})

	return room.clone(), host.clone(), nil
}

// StartGame transitions the room to playing and initializes the first
// level. Only the current host may start, with at least two players, and
// questionsPerLevel is pinned to the roster size so every player asks once
// per level.
func (e *Engine) StartGame(roomCode, requesterID string) (*TurnState, error) {
	entry, err := e.entry(roomCode)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if entry.destroyed {
		entry.mu.Unlock()
		return nil, errRoomNotFound(roomCode)
	}
	if entry.room.Status != RoomStatusLobby {
		entry.mu.Unlock()
		return nil, newError(KindConflict, "game in room %s has already started", entry.room.Code)
	}
	requester, ok := entry.players[requesterID]
	if !ok {
		entry.mu.Unlock()
		return nil, newError(KindNotFound, "player %q is not in room %s", requesterID, roomCode)
	}
	if !requester.IsHost {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "only the host can start the game")
	}
	if len(entry.players) < game_constants.MinPlayersToStart {
		entry.mu.Unlock()
		return nil, newError(KindConflict, "at least %d players are needed to start",
			game_constants.MinPlayersToStart)
	}

	entry.room.Settings.QuestionsPerLevel = len(entry.players)
	entry.room.Status = RoomStatusPlaying
	entry.turn = &TurnState{
		Level:              entry.room.Settings.StartLevel,
		TurnTimeoutSeconds: game_constants.DefaultTurnTimeoutSeconds,
	}
	e.initializeLevelLocked(entry, entry.turn.Level)
	entry.room.Version++

	ts := entry.turn.clone()
	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	log.Printf("[GAME] Room %s started at level %d with %d players",
		snap.Code, ts.Level, len(snap.Players))

	e.publish(redis_models.EventGameStarted, snap)
	e.auditSafe(func(a AuditTrail) error {
		return a.RoomStatusChanged(snap.Code, RoomStatusPlaying)
	})
	return ts, nil
}

// GetRoom is a read-only projection for the presentation layer.
func (e *Engine) GetRoom(roomCode string) (*Room, error) {
	entry, err := e.entry(roomCode)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.destroyed {
		return nil, errRoomNotFound(roomCode)
	}
	return entry.room.clone(), nil
}

// ListPlayers returns the roster ordered by join time.
func (e *Engine) ListPlayers(roomCode string) ([]*Player, error) {
	entry, err := e.entry(roomCode)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.destroyed {
		return nil, errRoomNotFound(roomCode)
	}
	return entry.playersByJoinLocked(), nil
}

// RoomState returns the full snapshot of a room, the same shape pushed on
// the notification feed.
func (e *Engine) RoomState(roomCode string) (*redis_models.RoomSnapshot, error) {
	entry, err := e.entry(roomCode)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.destroyed {
		return nil, errRoomNotFound(roomCode)
	}
	return entry.snapshotLocked(), nil
}

// entry resolves a room code to its guarded entry. Codes are case
// insensitive on the way in; a code of the wrong shape is rejected before
// the map lookup.
func (e *Engine) entry(roomCode string) (*roomEntry, error) {
	code := strings.ToUpper(strings.TrimSpace(roomCode))
	if len(code) != game_constants.RoomCodeLength {
		return nil, newError(KindInvalidArgument, "malformed room code %q", roomCode)
	}
	e.mu.RLock()
	entry, ok := e.rooms[code]
	e.mu.RUnlock()
	if !ok {
		return nil, errRoomNotFound(code)
	}
	return entry, nil
}

func errRoomNotFound(code string) *Error {
	return newError(KindNotFound, "room %q not found", strings.ToUpper(strings.TrimSpace(code)))
}

// destroyRoomLocked marks the entry dead; the caller must still hold
// entry.mu and must call finishDestroy after releasing it.
func (e *Engine) destroyRoomLocked(entry *roomEntry, reason string) *redis_models.RoomEvent {
	entry.destroyed = true
	entry.room.Version++
	ev := &redis_models.RoomEvent{
		Type:     redis_models.EventRoomDestroyed,
		RoomCode: entry.room.Code,
		Version:  entry.room.Version,
		At:       e.now(),
	}
	log.Printf("[ROOM] Destroying room %s (%s)", entry.room.Code, reason)
	return ev
}

// finishDestroy unlinks a destroyed entry from the registry and emits the
// destruction event. Safe to call multiple times.
func (e *Engine) finishDestroy(entry *roomEntry, ev *redis_models.RoomEvent, reason string) {
	e.mu.Lock()
	if current, ok := e.rooms[ev.RoomCode]; ok && current == entry {
		delete(e.rooms, ev.RoomCode)
	}
	e.mu.Unlock()

	if e.notifier != nil {
		if err := e.notifier.PublishRoomEvent(ev); err != nil {
			log.Printf("[NOTIFY] Failed to publish %s for room %s: %v", ev.Type, ev.RoomCode, err)
		}
	}
	e.auditSafe(func(a AuditTrail) error {
		return a.RoomDestroyed(ev.RoomCode, reason, ev.At)
	})
}

// publish emits a snapshot-carrying event. Always called after the room
// lock has been released.
func (e *Engine) publish(eventType string, snap *redis_models.RoomSnapshot) {
	if e.notifier == nil || snap == nil {
		return
	}
	ev := &redis_models.RoomEvent{
		Type:     eventType,
		RoomCode: snap.Code,
		Version:  snap.Version,
		At:       e.now(),
		Snapshot: snap,
	}
	if err := e.notifier.PublishRoomEvent(ev); err != nil {
		log.Printf("[NOTIFY] Failed to publish %s for room %s: %v", eventType, snap.Code, err)
	}
}

func (e *Engine) auditSafe(fn func(AuditTrail) error) {
	if e.audit == nil {
		return
	}
	if err := fn(e.audit); err != nil {
		log.Printf("[AUDIT] Audit trail write failed: %v", err)
	}
}

func (entry *roomEntry) playersByJoinLocked() []*Player {
	players := make([]*Player, 0, len(entry.players))
	for _, p := range entry.players {
		players = append(players, p.clone())
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players
}

func randomRoomCode() string {
	b := make([]byte, game_constants.RoomCodeLength)
	for i := range b {
		b[i] = game_constants.RoomCodeAlphabet[rand.Intn(len(game_constants.RoomCodeAlphabet))]
	}
	return string(b)
}
