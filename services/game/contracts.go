package game

import (
	"time"

	redis_models "Candor/models/redis"
)

// QuestionBank is the external question oracle. Implementations must be
// pure and non-blocking: the engine may call them while holding a room
// lock. Draws exclude already-asked texts where feasible.
type QuestionBank interface {
	DrawQuestion(level int, exclude map[string]bool) (string, error)
	DrawQuestionBatch(level int, count int, exclude map[string]bool) ([]string, error)
}

// Notifier receives one event after every successful mutation, always
// after the room lock has been released. Implementations fan the event out
// to viewers; the engine never waits on delivery.
type Notifier interface {
	PublishRoomEvent(event *redis_models.RoomEvent) error
}

// AuditTrail is the optional append-only history sink. Errors are logged
// by the engine and never surface to players.
type AuditTrail interface {
	RoomCreated(code, hostPlayerID, hostName string, settings RoomSettings, createdAt time.Time) error
	RoomStatusChanged(code string, status RoomStatus) error
	TurnRecorded(code string, q AskedQuestion) error
	RoomDestroyed(code, reason string, at time.Time) error
}
