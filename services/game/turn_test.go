package game

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	game_constants "Candor/constants/game"
	redis_models "Candor/models/redis"
)

// playOneTurn asks and answers a single question using whoever currently
// holds the roles, and returns the resulting turn state.
func playOneTurn(t *testing.T, e *Engine, code string, n int) *TurnState {
	t.Helper()
	snap, err := e.RoomState(code)
	if err != nil {
		t.Fatalf("RoomState failed: %v", err)
	}
	asker := snap.Turn.AskerID
	answerer := snap.Turn.AnswererID

	if _, err := e.SetQuestion(code, asker, fmt.Sprintf("question %d", n), false); err != nil {
		t.Fatalf("SetQuestion by %s failed: %v", asker, err)
	}
	ts, err := e.AdvanceTurn(code, answerer)
	if err != nil {
		t.Fatalf("AdvanceTurn by %s failed: %v", answerer, err)
	}
	return ts
}

func TestSetQuestion(t *testing.T) {
	e, notifier, clock := newTestEngine(t)
	code := makeRoom(t, e, clock, 3)
	ts, err := e.StartGame(code, "p1")
	assert.NoError(t, err)
	asker := ts.AskerID()
	answerer := ts.AnswererID()

	t.Run("only the current asker", func(t *testing.T) {
		_, err := e.SetQuestion(code, answerer, "May I?", false)
		assertKind(t, err, KindPreconditionFailed)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		_, err := e.SetQuestion(code, asker, "   ", false)
		assertKind(t, err, KindInvalidArgument)
	})

	t.Run("oversize text rejected", func(t *testing.T) {
		_, err := e.SetQuestion(code, asker, strings.Repeat("x", game_constants.MaxQuestionLength+1), false)
		assertKind(t, err, KindInvalidArgument)
	})

	t.Run("asking hands the turn to the answerer", func(t *testing.T) {
		ts, err := e.SetQuestion(code, asker, "What scares you most?", true)
		assert.NoError(t, err)
		assert.Equal(t, PhaseAnswering, ts.Phase)
		assert.Equal(t, "What scares you most?", ts.CurrentQuestion)
		assert.True(t, ts.IsCustomQuestion)
		assert.Contains(t, notifier.types(), redis_models.EventQuestionSet)
	})

	t.Run("pending question cannot be overwritten", func(t *testing.T) {
		_, err := e.SetQuestion(code, asker, "Second thoughts?", false)
		assertKind(t, err, KindPreconditionFailed)
	})
}

func TestAdvanceTurn(t *testing.T) {
	t.Run("requires an active question", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		ts, _ := e.StartGame(code, "p1")
		_, err := e.AdvanceTurn(code, ts.AnswererID())
		assertKind(t, err, KindPreconditionFailed)
	})

	t.Run("only the current answerer", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		ts, _ := e.StartGame(code, "p1")
		_, err := e.SetQuestion(code, ts.AskerID(), "Favorite color?", false)
		assert.NoError(t, err)
		_, err = e.AdvanceTurn(code, ts.AskerID())
		assertKind(t, err, KindPreconditionFailed)
	})

	t.Run("answerer becomes next asker", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 4)
		ts, _ := e.StartGame(code, "p1")
		prevAnswerer := ts.AnswererID()

		next := playOneTurn(t, e, code, 1)
		assert.Equal(t, prevAnswerer, next.AskerID())
		assert.NotEqual(t, next.AskerID(), next.AnswererID())
		assert.Equal(t, PhaseSelectingQuestion, next.Phase)
		assert.Equal(t, "", next.CurrentQuestion)
		assert.Equal(t, 1, next.QuestionsAskedThisLevel)
		assert.Len(t, next.AskedHistory, 1)
	})

	t.Run("completing the quota descends one level", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		_, err := e.StartGame(code, "p1")
		assert.NoError(t, err)

		// Two players means two questions per level
		playOneTurn(t, e, code, 1)
		ts := playOneTurn(t, e, code, 2)

		assert.Equal(t, game_constants.DefaultStartLevel-1, ts.Level)
		assert.Equal(t, 0, ts.QuestionsAskedThisLevel)
		assert.Empty(t, ts.RerollsUsedThisLevel, "rerolls reset on level change")
		assert.NotEqual(t, ts.AskerID(), ts.AnswererID())
	})

	t.Run("finishing level 1 ends the game", func(t *testing.T) {
		e, notifier, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		_, err := e.StartGame(code, "p1")
		assert.NoError(t, err)

		total := 2 * game_constants.DefaultStartLevel
		for i := 1; i <= total; i++ {
			playOneTurn(t, e, code, i)
		}

		room, _ := e.GetRoom(code)
		assert.Equal(t, RoomStatusFinished, room.Status)
		assert.Equal(t, redis_models.EventGameFinished, notifier.last().Type)

		_, err = e.SetQuestion(code, "p1", "One more?", false)
		assertKind(t, err, KindConflict)
	})

	t.Run("asker never answers their own question", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 4)
		_, err := e.StartGame(code, "p1")
		assert.NoError(t, err)

		total := 4 * game_constants.DefaultStartLevel
		for i := 1; i <= total; i++ {
			snap, err := e.RoomState(code)
			assert.NoError(t, err)
			assert.NotEqual(t, snap.Turn.AskerID, snap.Turn.AnswererID,
				"turn %d paired a player with themselves", i)
			playOneTurn(t, e, code, i)
		}
		room, _ := e.GetRoom(code)
		assert.Equal(t, RoomStatusFinished, room.Status)
	})
}

func TestRerollQuestion(t *testing.T) {
	setup := func(t *testing.T) (*Engine, *recordingNotifier, string, *TurnState) {
		e, notifier, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		ts, err := e.StartGame(code, "p1")
		assert.NoError(t, err)
		_, err = e.SetQuestion(code, ts.AskerID(), "Original question", false)
		assert.NoError(t, err)
		return e, notifier, code, ts
	}

	t.Run("answerer swaps the question once", func(t *testing.T) {
		e, notifier, code, ts := setup(t)
		fresh, err := e.RerollQuestion(code, ts.AnswererID())
		assert.NoError(t, err)
		assert.NotEqual(t, "Original question", fresh.CurrentQuestion)
		assert.False(t, fresh.IsCustomQuestion)
		assert.Equal(t, PhaseAnswering, fresh.Phase, "reroll keeps the phase")
		assert.Contains(t, notifier.types(), redis_models.EventQuestionRerolled)

		_, err = e.RerollQuestion(code, ts.AnswererID())
		assertKind(t, err, KindPreconditionFailed)
	})

	t.Run("asker cannot reroll", func(t *testing.T) {
		e, _, code, ts := setup(t)
		_, err := e.RerollQuestion(code, ts.AskerID())
		assertKind(t, err, KindPreconditionFailed)
	})

	t.Run("no reroll without a pending question", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		ts, _ := e.StartGame(code, "p1")
		_, err := e.RerollQuestion(code, ts.AnswererID())
		assertKind(t, err, KindPreconditionFailed)
	})

	t.Run("exhausted bank is a conflict", func(t *testing.T) {
		notifier := &recordingNotifier{}
		e := NewEngine(emptyBank{}, notifier, nil)
		clock := newTestClock()
		e.now = clock.Now
		code := makeRoom(t, e, clock, 2)
		ts, err := e.StartGame(code, "p1")
		assert.NoError(t, err)
		_, err = e.SetQuestion(code, ts.AskerID(), "Only question", false)
		assert.NoError(t, err)

		_, err = e.RerollQuestion(code, ts.AnswererID())
		assertKind(t, err, KindConflict)

		// The failed draw must not burn the reroll
		snap, _ := e.RoomState(code)
		assert.Empty(t, snap.Turn.RerollsUsedThisLevel)
	})
}

func TestSuggestQuestions(t *testing.T) {
	e, _, clock := newTestEngine(t)
	code := makeRoom(t, e, clock, 2)
	ts, err := e.StartGame(code, "p1")
	assert.NoError(t, err)

	t.Run("asker gets distinct fresh candidates", func(t *testing.T) {
		suggestions, err := e.SuggestQuestions(code, ts.AskerID(), 0)
		assert.NoError(t, err)
		assert.Len(t, suggestions, game_constants.DefaultSuggestionCount)
		seen := map[string]bool{}
		for _, q := range suggestions {
			assert.False(t, seen[q])
			seen[q] = true
		}
	})

	t.Run("answerer cannot peek", func(t *testing.T) {
		_, err := e.SuggestQuestions(code, ts.AnswererID(), 3)
		assertKind(t, err, KindPreconditionFailed)
	})

	t.Run("suggestions exclude the asked history", func(t *testing.T) {
		_, err := e.SetQuestion(code, ts.AskerID(), "Handpicked question", true)
		assert.NoError(t, err)
		next, err := e.AdvanceTurn(code, ts.AnswererID())
		assert.NoError(t, err)

		suggestions, err := e.SuggestQuestions(code, next.AskerID(), 10)
		assert.NoError(t, err)
		assert.NotContains(t, suggestions, "Handpicked question")
	})
}

func TestCheckTurnTimeout(t *testing.T) {
	t.Run("fresh turn reports nothing", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		_, err := e.StartGame(code, "p1")
		assert.NoError(t, err)

		res, err := e.CheckTurnTimeout(code)
		assert.NoError(t, err)
		assert.False(t, res.TimedOut)
		assert.False(t, res.Skipped)
	})

	t.Run("slow but connected asker is reported, not skipped", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		ts, _ := e.StartGame(code, "p1")
		before := ts.AskerID()

		clock.Advance(time.Duration(game_constants.DefaultTurnTimeoutSeconds+1) * time.Second)

		res, err := e.CheckTurnTimeout(code)
		assert.NoError(t, err)
		assert.True(t, res.TimedOut)
		assert.False(t, res.Skipped)

		snap, _ := e.RoomState(code)
		assert.Equal(t, before, snap.Turn.AskerID, "roles untouched while the asker is connected")
	})

	t.Run("disconnected asker is skipped without counting", func(t *testing.T) {
		e, notifier, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 3)
		ts, _ := e.StartGame(code, "p1")
		asker := ts.AskerID()
		answerer := ts.AnswererID()

		// Everyone but the asker keeps heartbeating until the asker is stale
		clock.Advance(game_constants.HeartbeatStaleAfter + time.Second)
		for _, id := range []string{"p1", "p2", "p3"} {
			if id != asker {
				assert.NoError(t, e.Heartbeat(code, id))
			}
		}
		e.RunLivenessSweep()

		clock.Advance(time.Duration(game_constants.DefaultTurnTimeoutSeconds+1) * time.Second)
		res, err := e.CheckTurnTimeout(code)
		assert.NoError(t, err)
		assert.True(t, res.TimedOut)
		assert.True(t, res.Skipped)

		snap, _ := e.RoomState(code)
		assert.Equal(t, answerer, snap.Turn.AskerID, "rotation matches a normal advance")
		assert.Equal(t, 0, snap.Turn.QuestionsAskedThisLevel, "skips never count toward the level quota")
		assert.Equal(t, "", snap.Turn.CurrentQuestion)
		assert.Contains(t, notifier.types(), redis_models.EventTurnSkipped)
	})

	t.Run("lobby room is a conflict", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		code := makeRoom(t, e, clock, 2)
		_, err := e.CheckTurnTimeout(code)
		assertKind(t, err, KindConflict)
	})
}
