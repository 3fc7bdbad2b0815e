package game_constants

import "time"

// Room codes. The alphabet leaves out characters that are easy to misread
// on a phone screen (0/O, 1/I/L).
const RoomCodeLength = 4
const RoomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
const RoomCodeAllocationAttempts = 5

// Roster limits
const MaxPlayersPerRoom = 10
const MinPlayersToStart = 2

// Level range. 5 is the deepest tier; games count down to 1.
const (
	MinLevel          = 1
	MaxLevel          = 5
	DefaultStartLevel = 5
)

// Questions
const DefaultQuestionsPerLevel = 4 // replaced by roster size at game start
const MaxQuestionLength = 280
const DefaultSuggestionCount = 3

// Turn timing
const DefaultTurnTimeoutSeconds = 60

// Liveness and reclamation
const (
	HeartbeatStaleAfter   = 120 * time.Second
	DisconnectGracePeriod = 5 * time.Minute
	LivenessSweepInterval = 30 * time.Second
	EvictionSweepInterval = 2 * time.Minute
	MaxRoomLifetime       = 2 * time.Hour
)

// TTL for the room snapshot mirror kept in Redis
const RoomSnapshotTTL = 24 * time.Hour
