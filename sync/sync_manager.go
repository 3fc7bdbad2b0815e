package sync

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"Candor/services/game"
)

// SyncManager is the append-only audit trail behind the engine. It writes
// with plain SQL over the connection GORM migrated; the engine logs and
// swallows any error it returns, so a broken audit sink never disturbs a
// running game.
type SyncManager struct {
	db *sql.DB
}

// NewSyncManager creates a new instance of the audit trail writer
func NewSyncManager(db *sql.DB) *SyncManager {
	return &SyncManager{db: db}
}

// RoomCreated appends the row a room's lifetime hangs off. Room codes are
// reused after destruction, so the live row for a code is the one whose
// destroyed_at is still null.
func (sm *SyncManager) RoomCreated(code, hostPlayerID, hostName string, settings game.RoomSettings, createdAt time.Time) error {
	query := `
		INSERT INTO game_rooms
			(code, host_player_id, host_name, status, start_level, questions_per_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := sm.db.Exec(query,
		code,
		hostPlayerID,
		hostName,
		string(game.RoomStatusLobby),
		settings.StartLevel,
		settings.QuestionsPerLevel,
		createdAt)
	if err != nil {
		return fmt.Errorf("error inserting room audit row: %v", err)
	}
	return nil
}

// RoomStatusChanged records lobby->playing and ->finished transitions.
func (sm *SyncManager) RoomStatusChanged(code string, status game.RoomStatus) error {
	query := `
		UPDATE game_rooms
		SET status = $1
		WHERE code = $2 AND destroyed_at IS NULL
	`
	_, err := sm.db.Exec(query, string(status), code)
	if err != nil {
		return fmt.Errorf("error updating room status in audit trail: %v", err)
	}
	return nil
}

// TurnRecorded appends one answered question.
func (sm *SyncManager) TurnRecorded(code string, q game.AskedQuestion) error {
	payload, err := json.Marshal(map[string]interface{}{
		"text":      q.Text,
		"is_custom": q.IsCustom,
	})
	if err != nil {
		return fmt.Errorf("error marshaling question payload: %v", err)
	}

	query := `
		INSERT INTO turn_records
			(room_code, level, asker_id, answerer_id, question, asked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = sm.db.Exec(query,
		code,
		q.Level,
		q.AskerID,
		q.AnswererID,
		payload,
		q.AskedAt)
	if err != nil {
		return fmt.Errorf("error inserting turn record: %v", err)
	}
	return nil
}

// RoomDestroyed closes out the live row for a code.
func (sm *SyncManager) RoomDestroyed(code, reason string, at time.Time) error {
	query := `
		UPDATE game_rooms
		SET destroyed_at = $1, destroy_reason = $2
		WHERE code = $3 AND destroyed_at IS NULL
	`
	_, err := sm.db.Exec(query, at, reason, code)
	if err != nil {
		return fmt.Errorf("error closing room audit row: %v", err)
	}
	return nil
}
