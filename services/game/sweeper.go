package game

import (
	"log"
	"sync"
	"time"

	game_constants "Candor/constants/game"
	redis_models "Candor/models/redis"
)

// Sweeper drives the two reclamation cadences. Both passes are idempotent
// and go through the same per-room locks as ordinary actions, so they
// never interrupt an in-flight game operation.
type Sweeper struct {
	engine *Engine
	stop   chan struct{}
	once   sync.Once
}

func NewSweeper(engine *Engine) *Sweeper {
	return &Sweeper{
		engine: engine,
		stop:   make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.loop(game_constants.LivenessSweepInterval, func() {
		s.engine.RunLivenessSweep()
	})
	go s.loop(game_constants.EvictionSweepInterval, func() {
		s.engine.RunEvictionSweep()
	})
	log.Printf("[SWEEP] Sweeper started (liveness every %s, eviction every %s)",
		game_constants.LivenessSweepInterval, game_constants.EvictionSweepInterval)
}

func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Sweeper) loop(interval time.Duration, pass func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pass()
		case <-s.stop:
			return
		}
	}
}

// RunLivenessSweep marks players whose heartbeat has gone stale as
// disconnected, starting their grace window, and transfers the host role
// off any host it disconnects. Returns how many players it marked.
func (e *Engine) RunLivenessSweep() int {
	marked := 0
	for _, entry := range e.entriesSnapshot() {
		marked += e.sweepRoomLiveness(entry)
	}
	if marked > 0 {
		log.Printf("[SWEEP] Liveness sweep marked %d players disconnected", marked)
	}
	return marked
}

func (e *Engine) sweepRoomLiveness(entry *roomEntry) (marked int) {
	// One broken room must not abort the rest of the pass.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SWEEP] Liveness sweep panic for room %s: %v", entry.room.Code, r)
		}
	}()

	now := e.now()

	entry.mu.Lock()
	if entry.destroyed {
		entry.mu.Unlock()
		return 0
	}

	hostAffected := false
	for _, p := range entry.players {
		if p.ConnectionState != ConnectionStateConnected {
			continue
		}
		if now.Sub(p.LastHeartbeatAt) <= game_constants.HeartbeatStaleAfter {
			continue
		}
		p.ConnectionState = ConnectionStateDisconnected
		p.DisconnectedAt = now
		marked++
		if p.IsHost {
			hostAffected = true
		}
		log.Printf("[SWEEP] Player %q in room %s marked disconnected", p.ID, entry.room.Code)
	}
	if marked == 0 {
		entry.mu.Unlock()
		return 0
	}
	entry.room.Version++

	hostTransferred := false
	var destroyEvent *redis_models.RoomEvent
	if hostAffected {
		hostTransferred, destroyEvent = e.transferHostIfNeededLocked(entry)
	}

	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	if destroyEvent != nil {
		e.finishDestroy(entry, destroyEvent, "no eligible host")
		return marked
	}
	e.publish(redis_models.EventPlayerDisconnected, snap)
	if hostTransferred {
		e.publish(redis_models.EventHostTransferred, snap)
	}
	return marked
}

// RunEvictionSweep permanently removes players whose disconnect grace
// period has elapsed, destroys rooms left empty, and purges rooms past
// the maximum lifetime. Rooms that are mid-game are exempt from the age
// purge: only emptiness removes a playing room. Returns how many players
// it evicted.
func (e *Engine) RunEvictionSweep() int {
	evicted := 0
	for _, entry := range e.entriesSnapshot() {
		evicted += e.sweepRoomEviction(entry)
	}
	if evicted > 0 {
		log.Printf("[SWEEP] Eviction sweep removed %d players", evicted)
	}
	return evicted
}

func (e *Engine) sweepRoomEviction(entry *roomEntry) (evicted int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SWEEP] Eviction sweep panic for room %s: %v", entry.room.Code, r)
		}
	}()

	now := e.now()

	entry.mu.Lock()
	if entry.destroyed {
		entry.mu.Unlock()
		return 0
	}

	// The grace window only protects games in progress; a room that never
	// started has nothing to resume, so its disconnected players go
	// straight away.
	grace := game_constants.DisconnectGracePeriod
	if entry.room.Status == RoomStatusLobby {
		grace = 0
	}

	var stale []string
	for _, p := range entry.players {
		if p.ConnectionState != ConnectionStateDisconnected {
			continue
		}
		if now.Sub(p.DisconnectedAt) > grace {
			stale = append(stale, p.ID)
		}
	}

	merged := removalOutcome{}
	for _, id := range stale {
		outcome := e.removePlayerLocked(entry, id, "evicted")
		evicted++
		merged.hostTransferred = merged.hostTransferred || outcome.hostTransferred
		merged.gameFinished = merged.gameFinished || outcome.gameFinished
		if outcome.destroyEvent != nil {
			merged.destroyEvent = outcome.destroyEvent
			merged.destroyReason = outcome.destroyReason
			break
		}
	}

	if merged.destroyEvent == nil && entry.room.Status != RoomStatusPlaying &&
		now.Sub(entry.room.CreatedAt) > game_constants.MaxRoomLifetime {
		merged.destroyReason = "max lifetime exceeded"
		merged.destroyEvent = e.destroyRoomLocked(entry, merged.destroyReason)
	}

	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	if merged.destroyEvent != nil {
		e.finishDestroy(entry, merged.destroyEvent, merged.destroyReason)
		return evicted
	}
	if evicted > 0 {
		e.emitRemoval(entry, redis_models.EventPlayerLeft, snap, merged)
	}
	return evicted
}

// ReclamationPreview lists what the next sweep passes would do, without
// doing any of it.
type ReclamationPreview struct {
	StaleHeartbeats []PreviewPlayer `json:"stale_heartbeats"`
	Evictions       []PreviewPlayer `json:"evictions"`
	RoomsToDestroy  []PreviewRoom   `json:"rooms_to_destroy"`
}

type PreviewPlayer struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
	IdleFor  string `json:"idle_for"`
}

type PreviewRoom struct {
	RoomCode string `json:"room_code"`
	Reason   string `json:"reason"`
}

// PreviewReclamation is the read-only ops view of the sweeps. Calling it
// never mutates anything.
func (e *Engine) PreviewReclamation() *ReclamationPreview {
	preview := &ReclamationPreview{
		StaleHeartbeats: []PreviewPlayer{},
		Evictions:       []PreviewPlayer{},
		RoomsToDestroy:  []PreviewRoom{},
	}
	now := e.now()

	for _, entry := range e.entriesSnapshot() {
		entry.mu.Lock()
		if entry.destroyed {
			entry.mu.Unlock()
			continue
		}

		grace := game_constants.DisconnectGracePeriod
		if entry.room.Status == RoomStatusLobby {
			grace = 0
		}

		remaining := len(entry.players)
		for _, p := range entry.playersByJoinLocked() {
			switch p.ConnectionState {
			case ConnectionStateConnected:
				if idle := now.Sub(p.LastHeartbeatAt); idle > game_constants.HeartbeatStaleAfter {
					preview.StaleHeartbeats = append(preview.StaleHeartbeats, PreviewPlayer{
						RoomCode: entry.room.Code,
						PlayerID: p.ID,
						IdleFor:  idle.Round(time.Second).String(),
					})
				}
			case ConnectionStateDisconnected:
				if idle := now.Sub(p.DisconnectedAt); idle > grace {
					preview.Evictions = append(preview.Evictions, PreviewPlayer{
						RoomCode: entry.room.Code,
						PlayerID: p.ID,
						IdleFor:  idle.Round(time.Second).String(),
					})
					remaining--
				}
			}
		}

		switch {
		case remaining == 0:
			preview.RoomsToDestroy = append(preview.RoomsToDestroy, PreviewRoom{
				RoomCode: entry.room.Code,
				Reason:   "roster empty",
			})
		case entry.room.Status != RoomStatusPlaying &&
			now.Sub(entry.room.CreatedAt) > game_constants.MaxRoomLifetime:
			preview.RoomsToDestroy = append(preview.RoomsToDestroy, PreviewRoom{
				RoomCode: entry.room.Code,
				Reason:   "max lifetime exceeded",
			})
		}
		entry.mu.Unlock()
	}
	return preview
}

func (e *Engine) entriesSnapshot() []*roomEntry {
	e.mu.RLock()
	entries := make([]*roomEntry, 0, len(e.rooms))
	for _, entry := range e.rooms {
		entries = append(entries, entry)
	}
	e.mu.RUnlock()
	return entries
}
