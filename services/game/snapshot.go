package game

import (
	"sort"

	redis_models "Candor/models/redis"
)

func (r *Room) clone() *Room {
	c := *r
	return &c
}

func (p *Player) clone() *Player {
	c := *p
	return &c
}

func (ts *TurnState) clone() *TurnState {
	if ts == nil {
		return nil
	}
	c := *ts
	c.PlayerOrder = append([]string(nil), ts.PlayerOrder...)
	c.AskedHistory = append([]AskedQuestion(nil), ts.AskedHistory...)
	c.RerollsUsedThisLevel = make(map[string]bool, len(ts.RerollsUsedThisLevel))
	for id := range ts.RerollsUsedThisLevel {
		c.RerollsUsedThisLevel[id] = true
	}
	return &c
}

// snapshotLocked builds the client-facing view of the room. Caller holds
// entry.mu.
func (entry *roomEntry) snapshotLocked() *redis_models.RoomSnapshot {
	room := entry.room
	snap := &redis_models.RoomSnapshot{
		Code:              room.Code,
		HostPlayerID:      room.HostPlayerID,
		Status:            string(room.Status),
		StartLevel:        room.Settings.StartLevel,
		QuestionsPerLevel: room.Settings.QuestionsPerLevel,
		CreatedAt:         room.CreatedAt,
		Version:           room.Version,
	}

	for _, p := range entry.playersByJoinLocked() {
		ps := redis_models.PlayerSnapshot{
			ID:              p.ID,
			Name:            p.Name,
			IsHost:          p.IsHost,
			ConnectionState: string(p.ConnectionState),
			JoinedAt:        p.JoinedAt,
			LastHeartbeatAt: p.LastHeartbeatAt,
		}
		if p.ConnectionState == ConnectionStateDisconnected {
			since := p.DisconnectedAt
			ps.DisconnectedSince = &since
		}
		snap.Players = append(snap.Players, ps)
	}

	if entry.turn != nil {
		ts := entry.turn
		rerolls := make([]string, 0, len(ts.RerollsUsedThisLevel))
		for id := range ts.RerollsUsedThisLevel {
			rerolls = append(rerolls, id)
		}
		sort.Strings(rerolls)
		snap.Turn = &redis_models.TurnSnapshot{
			Level:                   ts.Level,
			Phase:                   string(ts.Phase),
			PlayerOrder:             append([]string(nil), ts.PlayerOrder...),
			AskerID:                 ts.AskerID(),
			AnswererID:              ts.AnswererID(),
			CurrentQuestion:         ts.CurrentQuestion,
			IsCustomQuestion:        ts.IsCustomQuestion,
			QuestionsAskedThisLevel: ts.QuestionsAskedThisLevel,
			RerollsUsedThisLevel:    rerolls,
			TurnStartedAt:           ts.TurnStartedAt,
			TurnTimeoutSeconds:      ts.TurnTimeoutSeconds,
		}
	}
	return snap
}
