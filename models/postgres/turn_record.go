package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'TurnRecord' is one answered question, appended when the answerer
 * advances the turn. The question payload (text, custom flag) is stored
 * as jsonb.
 */
type TurnRecord struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"`
	GameRoomID *uint          `gorm:"index"`
	RoomCode   string         `gorm:"size:8;not null;index:idx_turn_records_room_code"`
	Level      int            `gorm:"not null"`
	AskerID    string         `gorm:"size:64;not null"`
	AnswererID string         `gorm:"size:64;not null"`
	Question   datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	AskedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
}
