package game

import (
	"log"
	"math/rand"
	"strings"
	"time"

	game_constants "Candor/constants/game"
	redis_models "Candor/models/redis"
)

// initializeLevelLocked reshuffles the current roster into a fresh player
// order and resets the per-level counters. Called at game start and on
// every level transition. Caller holds entry.mu and guarantees at least
// two players.
func (e *Engine) initializeLevelLocked(entry *roomEntry, level int) {
	ts := entry.turn
	order := make([]string, 0, len(entry.players))
	for id := range entry.players {
		order = append(order, id)
	}
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	ts.Level = level
	ts.PlayerOrder = order
	ts.AskerIndex = 0
	ts.AnswererIndex = 1
	ts.Phase = PhaseSelectingQuestion
	ts.CurrentQuestion = ""
	ts.IsCustomQuestion = false
	ts.QuestionsAskedThisLevel = 0
	ts.RerollsUsedThisLevel = make(map[string]bool)
	ts.TurnStartedAt = e.now()
}

// SetQuestion stores the current asker's question and hands the turn to
// the answerer.
func (e *Engine) SetQuestion(roomCode, requesterID, text string, isCustom bool) (*TurnState, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(KindInvalidArgument, "question text must not be empty")
	}
	if len(text) > game_constants.MaxQuestionLength {
		return nil, newError(KindInvalidArgument, "question text exceeds %d characters",
			game_constants.MaxQuestionLength)
	}

	entry, ts, err := e.playingRoom(roomCode)
	if err != nil {
		return nil, err
	}

	if requesterID != ts.AskerID() {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "only the current asker can set the question")
	}
	if ts.Phase == PhaseAnswering {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "a question is already pending an answer")
	}

	ts.CurrentQuestion = text
	ts.IsCustomQuestion = isCustom
	ts.Phase = PhaseAnswering
	ts.TurnStartedAt = e.now()
	entry.room.Version++

	result := ts.clone()
	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	e.publish(redis_models.EventQuestionSet, snap)
	return result, nil
}

// AdvanceTurn records the answered question and rotates the roles: the
// answerer becomes the next asker and the following player in the order
// becomes the answerer. Completing the level's question quota moves the
// game one level shallower, or finishes it at level 1.
func (e *Engine) AdvanceTurn(roomCode, requesterID string) (*TurnState, error) {
	entry, ts, err := e.playingRoom(roomCode)
	if err != nil {
		return nil, err
	}

	if requesterID != ts.AnswererID() {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "only the current answerer can advance the turn")
	}
	if ts.CurrentQuestion == "" {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "no active question to answer")
	}

	answered := AskedQuestion{
		Text:       ts.CurrentQuestion,
		Level:      ts.Level,
		AskerID:    ts.AskerID(),
		AnswererID: requesterID,
		IsCustom:   ts.IsCustomQuestion,
		AskedAt:    e.now(),
	}
	ts.AskedHistory = append(ts.AskedHistory, answered)
	ts.QuestionsAskedThisLevel++
	entry.room.Version++

	eventType := redis_models.EventTurnAdvanced
	levelDone := ts.QuestionsAskedThisLevel >= entry.room.Settings.QuestionsPerLevel
	switch {
	case levelDone && ts.Level > game_constants.MinLevel:
		e.initializeLevelLocked(entry, ts.Level-1)
		log.Printf("[GAME] Room %s advanced to level %d", entry.room.Code, ts.Level)
	case levelDone:
		entry.room.Status = RoomStatusFinished
		ts.CurrentQuestion = ""
		ts.IsCustomQuestion = false
		eventType = redis_models.EventGameFinished
		log.Printf("[GAME] Room %s finished", entry.room.Code)
	default:
		ts.AskerIndex = ts.AnswererIndex
		ts.AnswererIndex = (ts.AnswererIndex + 1) % len(ts.PlayerOrder)
		ts.CurrentQuestion = ""
		ts.IsCustomQuestion = false
		ts.Phase = PhaseSelectingQuestion
		ts.TurnStartedAt = e.now()
	}

	result := ts.clone()
	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	e.publish(eventType, snap)
	e.auditSafe(func(a AuditTrail) error {
		return a.TurnRecorded(snap.Code, answered)
	})
	if eventType == redis_models.EventGameFinished {
		e.auditSafe(func(a AuditTrail) error {
			return a.RoomStatusChanged(snap.Code, RoomStatusFinished)
		})
	}
	return result, nil
}

// RerollQuestion swaps the pending question for a fresh draw at the same
// level. Each player gets one reroll per level, and only while they hold
// the answerer role. Phase and turn ownership stay as they are.
func (e *Engine) RerollQuestion(roomCode, requesterID string) (*TurnState, error) {
	entry, ts, err := e.playingRoom(roomCode)
	if err != nil {
		return nil, err
	}

	if requesterID != ts.AnswererID() {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "only the current answerer can reroll the question")
	}
	if ts.CurrentQuestion == "" {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "no active question to reroll")
	}
	if ts.RerollsUsedThisLevel[requesterID] {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "reroll already used this level")
	}

	exclude := make(map[string]bool, len(ts.AskedHistory)+1)
	for _, q := range ts.AskedHistory {
		exclude[q.Text] = true
	}
	exclude[ts.CurrentQuestion] = true

	// The bank is a pure in-process oracle, so the draw is safe under the
	// room lock.
	fresh, drawErr := e.bank.DrawQuestion(ts.Level, exclude)
	if drawErr != nil {
		level := ts.Level
		entry.mu.Unlock()
		return nil, newError(KindConflict, "question bank has no fresh question for level %d", level)
	}

	ts.RerollsUsedThisLevel[requesterID] = true
	ts.CurrentQuestion = fresh
	ts.IsCustomQuestion = false
	entry.room.Version++

	result := ts.clone()
	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	e.publish(redis_models.EventQuestionRerolled, snap)
	return result, nil
}

// SuggestQuestions draws a handful of candidate questions for the current
// asker to choose from, excluding everything already asked this game. A
// read-only convenience; picking one still goes through SetQuestion.
func (e *Engine) SuggestQuestions(roomCode, requesterID string, count int) ([]string, error) {
	if count <= 0 {
		count = game_constants.DefaultSuggestionCount
	}

	entry, ts, err := e.playingRoom(roomCode)
	if err != nil {
		return nil, err
	}

	if requesterID != ts.AskerID() {
		entry.mu.Unlock()
		return nil, newError(KindPreconditionFailed, "only the current asker can request suggestions")
	}

	exclude := make(map[string]bool, len(ts.AskedHistory)+1)
	for _, q := range ts.AskedHistory {
		exclude[q.Text] = true
	}
	if ts.CurrentQuestion != "" {
		exclude[ts.CurrentQuestion] = true
	}
	level := ts.Level

	suggestions, drawErr := e.bank.DrawQuestionBatch(level, count, exclude)
	entry.mu.Unlock()
	if drawErr != nil {
		return nil, newError(KindConflict, "question bank has no questions for level %d", level)
	}
	return suggestions, nil
}

// TimeoutResult reports what CheckTurnTimeout observed.
type TimeoutResult struct {
	TimedOut bool `json:"timed_out"`
	Skipped  bool `json:"skipped"`
}

// CheckTurnTimeout is the advisory poll over the current turn's age. A
// stale turn whose asker is disconnected rotates exactly like a
// no-question advance, without touching the per-level question count. A
// stale turn whose asker is present but slow is reported, never skipped.
func (e *Engine) CheckTurnTimeout(roomCode string) (TimeoutResult, error) {
	entry, ts, err := e.playingRoom(roomCode)
	if err != nil {
		return TimeoutResult{}, err
	}

	elapsed := e.now().Sub(ts.TurnStartedAt)
	if elapsed < time.Duration(ts.TurnTimeoutSeconds)*time.Second {
		entry.mu.Unlock()
		return TimeoutResult{}, nil
	}

	asker, present := entry.players[ts.AskerID()]
	if present && asker.ConnectionState == ConnectionStateConnected {
		entry.mu.Unlock()
		return TimeoutResult{TimedOut: true}, nil
	}

	ts.AskerIndex = ts.AnswererIndex
	ts.AnswererIndex = (ts.AnswererIndex + 1) % len(ts.PlayerOrder)
	ts.CurrentQuestion = ""
	ts.IsCustomQuestion = false
	ts.Phase = PhaseSelectingQuestion
	ts.TurnStartedAt = e.now()
	entry.room.Version++

	log.Printf("[GAME] Room %s skipped a stale turn (asker disconnected)", entry.room.Code)

	snap := entry.snapshotLocked()
	entry.mu.Unlock()

	e.publish(redis_models.EventTurnSkipped, snap)
	return TimeoutResult{TimedOut: true, Skipped: true}, nil
}

// playingRoom locks a room that must be mid-game. On success the caller
// owns entry.mu and must release it.
func (e *Engine) playingRoom(roomCode string) (*roomEntry, *TurnState, error) {
	entry, err := e.entry(roomCode)
	if err != nil {
		return nil, nil, err
	}
	entry.mu.Lock()
	if entry.destroyed {
		entry.mu.Unlock()
		return nil, nil, errRoomNotFound(roomCode)
	}
	if entry.room.Status != RoomStatusPlaying || entry.turn == nil {
		status := entry.room.Status
		code := entry.room.Code
		entry.mu.Unlock()
		if status == RoomStatusFinished {
			return nil, nil, newError(KindConflict, "game in room %s is already finished", code)
		}
		return nil, nil, newError(KindConflict, "game in room %s has not started", code)
	}
	return entry, entry.turn, nil
}
