package game

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	game_constants "Candor/constants/game"
	redis_models "Candor/models/redis"
)

// fakeBank hands out deterministic question texts so tests can reason
// about exclusion without touching the real bank.
type fakeBank struct {
	draws int
}

func (b *fakeBank) DrawQuestion(level int, exclude map[string]bool) (string, error) {
	for i := 0; i < 1000; i++ {
		b.draws++
		q := fmt.Sprintf("level %d question #%d", level, b.draws)
		if !exclude[q] {
			return q, nil
		}
	}
	return "", fmt.Errorf("question pool for level %d is exhausted", level)
}

func (b *fakeBank) DrawQuestionBatch(level int, count int, exclude map[string]bool) ([]string, error) {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		q, err := b.DrawQuestion(level, exclude)
		if err != nil {
			return out, err
		}
		out = append(out, q)
	}
	return out, nil
}

// emptyBank always fails, for exercising the reroll-exhausted path.
type emptyBank struct{}

func (emptyBank) DrawQuestion(level int, exclude map[string]bool) (string, error) {
	return "", fmt.Errorf("no questions for level %d", level)
}

func (emptyBank) DrawQuestionBatch(level int, count int, exclude map[string]bool) ([]string, error) {
	return nil, fmt.Errorf("no questions for level %d", level)
}

// recordingNotifier captures every published event in order.
type recordingNotifier struct {
	mu     sync.Mutex
	events []*redis_models.RoomEvent
}

func (n *recordingNotifier) PublishRoomEvent(event *redis_models.RoomEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Type
	}
	return out
}

func (n *recordingNotifier) last() *redis_models.RoomEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return nil
	}
	return n.events[len(n.events)-1]
}

// testClock lets tests move the engine's idea of time forward.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T) (*Engine, *recordingNotifier, *testClock) {
	t.Helper()
	notifier := &recordingNotifier{}
	clock := newTestClock()
	e := NewEngine(&fakeBank{}, notifier, nil)
	e.now = clock.Now
	return e, notifier, clock
}

// makeRoom creates a room with host "p1" plus extra players p2, p3, ...
func makeRoom(t *testing.T, e *Engine, clock *testClock, playerCount int) string {
	t.Helper()
	room, _, err := e.CreateRoom("Ana", "p1", RoomSettings{})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	for i := 2; i <= playerCount; i++ {
		clock.Advance(time.Second)
		if _, err := e.Join(room.Code, fmt.Sprintf("Player%d", i), fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("Join p%d failed: %v", i, err)
		}
	}
	return room.Code
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	kind, ok := KindOf(err)
	if !ok {
		t.Fatalf("expected engine error, got %v", err)
	}
	assert.Equal(t, want, kind, "unexpected error kind for %v", err)
}

func TestCreateRoom(t *testing.T) {
	e, notifier, _ := newTestEngine(t)

	t.Run("allocates a well-formed code", func(t *testing.T) {
		room, host, err := e.CreateRoom("Ana", "p1", RoomSettings{})
		assert.NoError(t, err)
		assert.Len(t, room.Code, game_constants.RoomCodeLength)
		for _, r := range room.Code {
			assert.Contains(t, game_constants.RoomCodeAlphabet, string(r))
		}
		assert.Equal(t, RoomStatusLobby, room.Status)
		assert.Equal(t, uint64(1), room.Version)
		assert.Equal(t, game_constants.DefaultStartLevel, room.Settings.StartLevel)

		assert.True(t, host.IsHost)
		assert.Equal(t, "p1", host.ID)
		assert.NotEmpty(t, host.SessionToken)
		assert.Equal(t, ConnectionStateConnected, host.ConnectionState)

		last := notifier.last()
		assert.Equal(t, redis_models.EventRoomCreated, last.Type)
		assert.Equal(t, room.Code, last.RoomCode)
	})

	t.Run("rejects empty host name", func(t *testing.T) {
		_, _, err := e.CreateRoom("   ", "p1", RoomSettings{})
		assertKind(t, err, KindInvalidArgument)
	})

	t.Run("rejects empty player id", func(t *testing.T) {
		_, _, err := e.CreateRoom("Ana", "", RoomSettings{})
		assertKind(t, err, KindInvalidArgument)
	})

	t.Run("rejects out-of-range start level", func(t *testing.T) {
		_, _, err := e.CreateRoom("Ana", "p1", RoomSettings{StartLevel: 9})
		assertKind(t, err, KindInvalidArgument)
	})

	t.Run("codes are unique across rooms", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			room, _, err := e.CreateRoom("Host", fmt.Sprintf("host%d", i), RoomSettings{})
			assert.NoError(t, err)
			assert.False(t, seen[room.Code], "room code %s allocated twice", room.Code)
			seen[room.Code] = true
		}
	})
}

func TestJoinRoom(t *testing.T) {
	t.Run("join and list in join order", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 3)

		players, err := e.ListPlayers(code)
		assert.NoError(t, err)
		assert.Len(t, players, 3)
		assert.Equal(t, "p1", players[0].ID)
		assert.Equal(t, "p2", players[1].ID)
		assert.Equal(t, "p3", players[2].ID)
		assert.True(t, players[0].IsHost)
		assert.False(t, players[1].IsHost)
	})

	t.Run("room codes are case insensitive", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 1)
		_, err := e.Join(strings.ToLower(code), "Bea", "p2")
		assert.NoError(t, err)
	})

	t.Run("malformed code rejected before lookup", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		_, err := e.Join("TOOLONG", "Bea", "p2")
		assertKind(t, err, KindInvalidArgument)
	})

	t.Run("unknown room", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		_, err := e.Join("ZZZZ", "Bea", "p2")
		assertKind(t, err, KindNotFound)
	})

	t.Run("room full", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, game_constants.MaxPlayersPerRoom)
		_, err := e.Join(code, "Extra", "p11")
		assertKind(t, err, KindConflict)
	})

	t.Run("rejoining same id refreshes instead of failing", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)

		again, err := e.Join(code, "Bea Renamed", "p2")
		assert.NoError(t, err)
		assert.Equal(t, "Bea Renamed", again.Name)

		players, _ := e.ListPlayers(code)
		assert.Len(t, players, 2)
	})

	t.Run("cannot join once the game started", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		_, err := e.StartGame(code, "p1")
		assert.NoError(t, err)
		_, err = e.Join(code, "Late", "p9")
		assertKind(t, err, KindConflict)
	})
}

func TestStartGame(t *testing.T) {
	t.Run("host starts with enough players", func(t *testing.T) {
		e, notifier, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 3)

		ts, err := e.StartGame(code, "p1")
		assert.NoError(t, err)
		assert.Equal(t, game_constants.DefaultStartLevel, ts.Level)
		assert.Len(t, ts.PlayerOrder, 3)
		assert.NotEqual(t, ts.AskerID(), ts.AnswererID())
		assert.Equal(t, PhaseSelectingQuestion, ts.Phase)
		assert.Equal(t, 0, ts.QuestionsAskedThisLevel)

		room, _ := e.GetRoom(code)
		assert.Equal(t, RoomStatusPlaying, room.Status)
		assert.Equal(t, 3, room.Settings.QuestionsPerLevel, "questions per level pinned to roster size")

		assert.Contains(t, notifier.types(), redis_models.EventGameStarted)
	})

	t.Run("non-host cannot start", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 3)
		_, err := e.StartGame(code, "p2")
		assertKind(t, err, KindPreconditionFailed)
	})

	t.Run("needs minimum players", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 1)
		_, err := e.StartGame(code, "p1")
		assertKind(t, err, KindConflict)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		_, err := e.StartGame(code, "p1")
		assert.NoError(t, err)
		_, err = e.StartGame(code, "p1")
		assertKind(t, err, KindConflict)
	})
}

func TestRoomStateSnapshot(t *testing.T) {
	e, _, clock := newTestEngine(t)
	code := makeRoom(t, e, clock, 2)

	snap, err := e.RoomState(code)
	assert.NoError(t, err)
	assert.Equal(t, code, snap.Code)
	assert.Equal(t, "p1", snap.HostPlayerID)
	assert.Len(t, snap.Players, 2)
	assert.Nil(t, snap.Turn)

	// The version in the snapshot must match the room's
	room, _ := e.GetRoom(code)
	assert.Equal(t, room.Version, snap.Version)

	_, err = e.StartGame(code, "p1")
	assert.NoError(t, err)
	snap, _ = e.RoomState(code)
	if assert.NotNil(t, snap.Turn) {
		assert.NotEqual(t, snap.Turn.AskerID, snap.Turn.AnswererID)
		assert.Equal(t, game_constants.DefaultStartLevel, snap.Turn.Level)
	}
}

func TestLeaveAndDestroy(t *testing.T) {
	t.Run("last player leaving destroys the room", func(t *testing.T) {
		e, notifier, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 1)

		assert.NoError(t, e.Leave(code, "p1"))

		_, err := e.GetRoom(code)
		assertKind(t, err, KindNotFound)
		assert.Equal(t, redis_models.EventRoomDestroyed, notifier.last().Type)
	})

	t.Run("host leaving transfers the role", func(t *testing.T) {
		e, notifier, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 3)

		assert.NoError(t, e.Leave(code, "p1"))

		room, err := e.GetRoom(code)
		assert.NoError(t, err)
		assert.Equal(t, "p2", room.HostPlayerID, "longest-tenured connected player becomes host")

		types := notifier.types()
		assert.Contains(t, types, redis_models.EventPlayerLeft)
		assert.Contains(t, types, redis_models.EventHostTransferred)
	})

	t.Run("mid-game shrink below minimum finishes the game", func(t *testing.T) {
		e, notifier, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		_, err := e.StartGame(code, "p1")
		assert.NoError(t, err)

		assert.NoError(t, e.Leave(code, "p2"))

		room, _ := e.GetRoom(code)
		assert.Equal(t, RoomStatusFinished, room.Status)
		assert.Contains(t, notifier.types(), redis_models.EventGameFinished)
	})

	t.Run("leaving an unknown room", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		assertKind(t, e.Leave("ZZZZ", "p1"), KindNotFound)
	})
}

func TestKick(t *testing.T) {
	e, notifier, clock := newTestEngine(t)
	code := makeRoom(t, e, clock, 3)

	t.Run("only the host kicks", func(t *testing.T) {
		assertKind(t, e.Kick(code, "p2", "p3"), KindPreconditionFailed)
	})

	t.Run("self-kick is rejected", func(t *testing.T) {
		assertKind(t, e.Kick(code, "p1", "p1"), KindInvalidArgument)
	})

	t.Run("host kicks a player", func(t *testing.T) {
		assert.NoError(t, e.Kick(code, "p1", "p3"))
		players, _ := e.ListPlayers(code)
		assert.Len(t, players, 2)
		assert.Contains(t, notifier.types(), redis_models.EventPlayerKicked)
	})

	t.Run("kicking a missing player", func(t *testing.T) {
		assertKind(t, e.Kick(code, "p1", "ghost"), KindNotFound)
	})
}
