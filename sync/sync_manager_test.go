package sync

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"Candor/services/game"
)

func newMockedManager(t *testing.T) (*SyncManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("opening sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSyncManager(db), mock
}

func TestRoomCreated(t *testing.T) {
	sm, mock := newMockedManager(t)
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO game_rooms").
		WithArgs("ABCD", "p1", "Ana", "lobby", 5, 4, createdAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := sm.RoomCreated("ABCD", "p1", "Ana", game.RoomSettings{
		StartLevel:        5,
		QuestionsPerLevel: 4,
	}, createdAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomStatusChanged(t *testing.T) {
	sm, mock := newMockedManager(t)

	mock.ExpectExec("UPDATE game_rooms").
		WithArgs("playing", "ABCD").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, sm.RoomStatusChanged("ABCD", game.RoomStatusPlaying))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTurnRecorded(t *testing.T) {
	sm, mock := newMockedManager(t)
	askedAt := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO turn_records").
		WithArgs("ABCD", 5, "p1", "p2", []byte(`{"is_custom":true,"text":"What scares you most?"}`), askedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := sm.TurnRecorded("ABCD", game.AskedQuestion{
		Text:       "What scares you most?",
		Level:      5,
		AskerID:    "p1",
		AnswererID: "p2",
		IsCustom:   true,
		AskedAt:    askedAt,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomDestroyed(t *testing.T) {
	sm, mock := newMockedManager(t)
	at := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE game_rooms").
		WithArgs(at, "roster empty", "ABCD").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, sm.RoomDestroyed("ABCD", "roster empty", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditErrorsAreWrapped(t *testing.T) {
	sm, mock := newMockedManager(t)

	mock.ExpectExec("UPDATE game_rooms").
		WithArgs("finished", "ABCD").
		WillReturnError(assert.AnError)

	err := sm.RoomStatusChanged("ABCD", game.RoomStatusFinished)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "audit trail")
}
