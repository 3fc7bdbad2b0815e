package game

import (
	"log"
	"sort"
	"strings"
	"time"

	game_constants "Candor/constants/game"
	redis_models "Candor/models/redis"
)

// Join adds a player to a lobby-state room and issues a fresh session
// token. Joining again with the same player id while still in the lobby
// refreshes the name and token instead of failing.
func (e *Engine) Join(roomCode, name, playerID string) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindInvalidArgument, "player name must not be empty")
	}
	if playerID == "" {
		return nil, newError(KindInvalidArgument, "player id must not be empty")
	}

	entry, err := e.entry(roomCode)
	if err != nil {
		return nil, err
	}

	now := e.now()
	token, err := issueSessionToken(playerID, now)
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

	if existing, ok := entry.players[playerID]; ok {
		existing.Name = name
		existing.LastHeartbeatAt = now
		existing.SessionToken = token
		existing.ConnectionState = ConnectionStateConnected
		existing.DisconnectedAt = time.Time{}
		entry.room.Version++
		player := existing.clone()
		snap := entry.snapshotLocked()
		entry.mu.Unlock()
		e.publish(redis_models.EventPlayerJoined, snap)
		return player, nil
	}

	if len(entry.players) >= game_constants.MaxPlayersPerRoom {
		entry.mu.Unlock()
		return nil, newError(KindConflict, "room %s is full (%d players max)",
			entry.room.Code, game_constants.MaxPlayersPerRoom)
	}

	player := &Player{
		ID:              playerID,
		RoomCode:        entry.room.Code,
		Name:            name,
		JoinedAt:        now,
		LastHeartbeatAt: now,
		ConnectionState: ConnectionStateConnected,
		SessionToken:    token,
	}
	entry.players[playerID] = player
	entry.room.Version++

	result := player.clone()
	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	log.Printf("[ROSTER] Player %q joined room %s", name, snap.Code)
	e.publish(redis_models.EventPlayerJoined, snap)
	return result, nil
}

// Heartbeat refreshes a player's liveness timestamp. It is the only
// mutation that bumps neither the room version nor the notification feed:
// it changes nothing except lastHeartbeatAt.
func (e *Engine) Heartbeat(roomCode, playerID string) error {
	entry, err := e.entry(roomCode)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.destroyed {
		return errRoomNotFound(roomCode)
	}
	player, ok := entry.players[playerID]
	if !ok {
		return newError(KindNotFound, "player %q is not in room %s", playerID, entry.room.Code)
	}
	player.LastHeartbeatAt = e.now()
	return nil
}

// Leave removes a player immediately, with no disconnect grace period.
func (e *Engine) Leave(roomCode, playerID string) error {
	entry, err := e.entry(roomCode)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	if entry.destroyed {
		entry.mu.Unlock()
		return errRoomNotFound(roomCode)
	}
	if _, ok := entry.players[playerID]; !ok {
		entry.mu.Unlock()
		return newError(KindNotFound, "player %q is not in room %s", playerID, entry.room.Code)
	}

	outcome := e.removePlayerLocked(entry, playerID, "left")
	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	e.emitRemoval(entry, redis_models.EventPlayerLeft, snap, outcome)
	return nil
}

// Kick removes another player from the room; only the host may do it.
func (e *Engine) Kick(roomCode, requesterID, targetID string) error {
	if requesterID == targetID {
		return newError(KindInvalidArgument, "cannot kick yourself; leave the room instead")
	}

	entry, err := e.entry(roomCode)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	if entry.destroyed {
		entry.mu.Unlock()
		return errRoomNotFound(roomCode)
	}
	requester, ok := entry.players[requesterID]
	if !ok {
		entry.mu.Unlock()
		return newError(KindNotFound, "player %q is not in room %s", requesterID, entry.room.Code)
	}
	if !requester.IsHost {
		entry.mu.Unlock()
		return newError(KindPreconditionFailed, "only the host can kick players")
	}
	if _, ok := entry.players[targetID]; !ok {
		entry.mu.Unlock()
		return newError(KindNotFound, "player %q is not in room %s", targetID, entry.room.Code)
	}

	outcome := e.removePlayerLocked(entry, targetID, "kicked")
	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	e.emitRemoval(entry, redis_models.EventPlayerKicked, snap, outcome)
	return nil
}

// removalOutcome records what cascaded off a permanent removal so events
// and audit writes can happen after the lock is released.
type removalOutcome struct {
	hostTransferred bool
	gameFinished    bool
	destroyEvent    *redis_models.RoomEvent
	destroyReason   string
}

// removePlayerLocked permanently removes a player and resolves every
// cascade: turn-order fix-up, host transfer, game termination and room
// destruction. Caller holds entry.mu.
func (e *Engine) removePlayerLocked(entry *roomEntry, playerID, reason string) removalOutcome {
	var outcome removalOutcome

	removed := entry.players[playerID]
	delete(entry.players, playerID)
	entry.room.Version++

	if entry.turn != nil {
		delete(entry.turn.RerollsUsedThisLevel, playerID)
		e.removeFromOrderLocked(entry, playerID)
	}

	log.Printf("[ROSTER] Player %q removed from room %s (%s)", playerID, entry.room.Code, reason)

	if len(entry.players) == 0 {
		outcome.destroyReason = "roster empty"
		outcome.destroyEvent = e.destroyRoomLocked(entry, outcome.destroyReason)
		return outcome
	}

	if removed != nil && removed.IsHost {
		transferred, destroyed := e.transferHostIfNeededLocked(entry)
		outcome.hostTransferred = transferred
		if destroyed != nil {
			outcome.destroyReason = "no eligible host"
			outcome.destroyEvent = destroyed
			return outcome
		}
	}

	if entry.room.Status == RoomStatusPlaying && len(entry.players) < game_constants.MinPlayersToStart {
		entry.room.Status = RoomStatusFinished
		outcome.gameFinished = true
		log.Printf("[GAME] Room %s finished: fewer than %d players remain",
			entry.room.Code, game_constants.MinPlayersToStart)
	}

	return outcome
}

// transferHostIfNeededLocked reassigns the host role when the current host
// is gone or disconnected. The longest-tenured connected player wins, with
// earliest joinedAt breaking ties. When nobody is eligible the room is
// destroyed. Caller holds entry.mu.
func (e *Engine) transferHostIfNeededLocked(entry *roomEntry) (bool, *redis_models.RoomEvent) {
	current, ok := entry.players[entry.room.HostPlayerID]
	if ok && current.ConnectionState == ConnectionStateConnected {
		return false, nil
	}

	eligible := make([]*Player, 0, len(entry.players))
	for _, p := range entry.players {
		if p.ConnectionState == ConnectionStateConnected {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return false, e.destroyRoomLocked(entry, "no eligible host")
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].JoinedAt.Equal(eligible[j].JoinedAt) {
			return eligible[i].ID < eligible[j].ID
		}
		return eligible[i].JoinedAt.Before(eligible[j].JoinedAt)
	})

	if ok {
		current.IsHost = false
	}
	newHost := eligible[0]
	newHost.IsHost = true
	entry.room.HostPlayerID = newHost.ID
	entry.room.Version++
	log.Printf("[ROSTER] Host of room %s transferred to %q", entry.room.Code, newHost.ID)
	return true, nil
}

// removeFromOrderLocked drops a player from the rotation and re-indexes
// the active roles, keeping asker != answerer whenever two or more players
// remain. Caller holds entry.mu.
func (e *Engine) removeFromOrderLocked(entry *roomEntry, playerID string) {
	ts := entry.turn
	idx := -1
	for i, id := range ts.PlayerOrder {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	heldRole := idx == ts.AskerIndex || idx == ts.AnswererIndex
	ts.PlayerOrder = append(ts.PlayerOrder[:idx], ts.PlayerOrder[idx+1:]...)
	n := len(ts.PlayerOrder)
	if n == 0 {
		ts.AskerIndex, ts.AnswererIndex = 0, 0
		return
	}

	fix := func(i int) int {
		if idx < i {
			i--
		}
		if i >= n {
			i = 0
		}
		return i
	}
	ts.AskerIndex = fix(ts.AskerIndex)
	ts.AnswererIndex = fix(ts.AnswererIndex)
	if n >= 2 && ts.AskerIndex == ts.AnswererIndex {
		ts.AnswererIndex = (ts.AskerIndex + 1) % n
	}

	if heldRole {
		ts.CurrentQuestion = ""
		ts.IsCustomQuestion = false
		ts.Phase = PhaseSelectingQuestion
		ts.TurnStartedAt = e.now()
	}
}

// emitRemoval publishes the event chain produced by a permanent removal.
func (e *Engine) emitRemoval(entry *roomEntry, primary string, snap *redis_models.RoomSnapshot, outcome removalOutcome) {
	if outcome.destroyEvent != nil {
		e.finishDestroy(entry, outcome.destroyEvent, outcome.destroyReason)
		return
	}
	e.publish(primary, snap)
	if outcome.hostTransferred {
		e.publish(redis_models.EventHostTransferred, snap)
	}
	if outcome.gameFinished {
		e.publish(redis_models.EventGameFinished, snap)
		e.auditSafe(func(a AuditTrail) error {
			return a.RoomStatusChanged(snap.Code, RoomStatusFinished)
		})
	}
}
