package redis

import "time"

// Event types published on a room's notification channel after every
// successful mutation. Each event carries a full versioned snapshot, so
// subscribers re-render from the snapshot instead of diffing deltas.
const (
	EventRoomCreated        = "room_created"
	EventPlayerJoined       = "player_joined"
	EventPlayerLeft         = "player_left"
	EventPlayerKicked       = "player_kicked"
	EventGameStarted        = "game_started"
	EventQuestionSet        = "question_set"
	EventTurnAdvanced       = "turn_advanced"
	EventQuestionRerolled   = "question_rerolled"
	EventTurnSkipped        = "turn_skipped"
	EventPlayerDisconnected = "player_disconnected"
	EventPlayerReconnected  = "player_reconnected"
	EventHostTransferred    = "host_transferred"
	EventGameFinished       = "game_finished"
	EventRoomDestroyed      = "room_destroyed"
)

// RoomEvent is the payload pushed through the notification feed
type RoomEvent struct {
	Type     string        `json:"type"`
	RoomCode string        `json:"room_code"`
	Version  uint64        `json:"version"`
	At       time.Time     `json:"at"`
	Snapshot *RoomSnapshot `json:"snapshot,omitempty"`
}

// RoomSnapshot is the full state of a room as seen by clients.
// Session tokens are never included; each client only ever learns its own
// token from the join/reconnect response.
type RoomSnapshot struct {
	Code              string           `json:"code"`
	HostPlayerID      string           `json:"host_player_id"`
	Status            string           `json:"status"`
	StartLevel        int              `json:"start_level"`
	QuestionsPerLevel int              `json:"questions_per_level"`
	CreatedAt         time.Time        `json:"created_at"`
	Version           uint64           `json:"version"`
	Players           []PlayerSnapshot `json:"players"`
	Turn              *TurnSnapshot    `json:"turn,omitempty"`
}

type PlayerSnapshot struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	IsHost            bool       `json:"is_host"`
	ConnectionState   string     `json:"connection_state"`
	JoinedAt          time.Time  `json:"joined_at"`
	LastHeartbeatAt   time.Time  `json:"last_heartbeat_at"`
	DisconnectedSince *time.Time `json:"disconnected_since,omitempty"`
}

type TurnSnapshot struct {
	Level                   int       `json:"level"`
	Phase                   string    `json:"phase"`
	PlayerOrder             []string  `json:"player_order"`
	AskerID                 string    `json:"asker_id"`
	AnswererID              string    `json:"answerer_id"`
	CurrentQuestion         string    `json:"current_question,omitempty"`
	IsCustomQuestion        bool      `json:"is_custom_question"`
	QuestionsAskedThisLevel int       `json:"questions_asked_this_level"`
	RerollsUsedThisLevel    []string  `json:"rerolls_used_this_level"`
	TurnStartedAt           time.Time `json:"turn_started_at"`
	TurnTimeoutSeconds      int       `json:"turn_timeout_seconds"`
}
