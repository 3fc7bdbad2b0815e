package postgres

import (
	"time"
)

/*
 * 'GameRoom' is the audit-trail record of a room. Codes are reused once a
 * room is destroyed, so rows carry a surrogate key and the live row for a
 * code is the one with destroyed_at still null.
 */
type GameRoom struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"`
	Code              string    `gorm:"size:8;not null;index:idx_game_rooms_code"`
	HostPlayerID      string    `gorm:"size:64;not null"`
	HostName          string    `gorm:"size:50"`
	Status            string    `gorm:"size:16;not null"`
	StartLevel        int       `gorm:"default:5"`
	QuestionsPerLevel int       `gorm:"default:0"`
	CreatedAt         time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	DestroyedAt       *time.Time
	DestroyReason     string `gorm:"size:64"`

	// Relationship with the turns played in the room
	TurnRecords []*TurnRecord `gorm:"foreignKey:GameRoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
