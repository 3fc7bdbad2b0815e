package game

import (
	"time"
)

type RoomStatus string

const (
	RoomStatusLobby    RoomStatus = "lobby"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

// RoomSettings are chosen at creation time. QuestionsPerLevel is replaced
// by the roster size when the game starts, so every player asks once per
// level no matter what was configured.
type RoomSettings struct {
	StartLevel        int `json:"start_level"`
	QuestionsPerLevel int `json:"questions_per_level"`
}

type Room struct {
	Code         string       `json:"code"`
	HostPlayerID string       `json:"host_player_id"`
	Status       RoomStatus   `json:"status"`
	Settings     RoomSettings `json:"settings"`
	CreatedAt    time.Time    `json:"created_at"`
	// Version increases by one on every successful mutation of the room
	// unit (room, roster or turn state) and is embedded in every
	// published event.
	Version uint64 `json:"version"`
}

type ConnectionState string

const (
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateDisconnected ConnectionState = "disconnected"
)

type Player struct {
	ID              string          `json:"id"`
	RoomCode        string          `json:"room_code"`
	Name            string          `json:"name"`
	IsHost          bool            `json:"is_host"`
	JoinedAt        time.Time       `json:"joined_at"`
	LastHeartbeatAt time.Time       `json:"last_heartbeat_at"`
	ConnectionState ConnectionState `json:"connection_state"`
	// DisconnectedAt is zero unless ConnectionState is disconnected.
	DisconnectedAt time.Time `json:"disconnected_at,omitempty"`
	// SessionToken is opaque to clients and only ever compared for exact
	// equality during reconnection. It is never an authorization grant
	// over other players.
	SessionToken string `json:"-"`
}

type TurnPhase string

const (
	PhaseSelectingQuestion TurnPhase = "selecting_question"
	PhaseAnswering         TurnPhase = "answering"
)

// AskedQuestion is one completed turn, appended to the room history when
// the answerer advances.
type AskedQuestion struct {
	Text       string    `json:"text"`
	Level      int       `json:"level"`
	AskerID    string    `json:"asker_id"`
	AnswererID string    `json:"answerer_id"`
	IsCustom   bool      `json:"is_custom"`
	AskedAt    time.Time `json:"asked_at"`
}

// TurnState exists exactly while a room is Playing or Finished and is
// mutated only by the engine's transition functions.
type TurnState struct {
	Level                   int             `json:"level"`
	PlayerOrder             []string        `json:"player_order"`
	AskerIndex              int             `json:"asker_index"`
	AnswererIndex           int             `json:"answerer_index"`
	Phase                   TurnPhase       `json:"phase"`
	CurrentQuestion         string          `json:"current_question"`
	IsCustomQuestion        bool            `json:"is_custom_question"`
	QuestionsAskedThisLevel int             `json:"questions_asked_this_level"`
	RerollsUsedThisLevel    map[string]bool `json:"rerolls_used_this_level"`
	AskedHistory            []AskedQuestion `json:"asked_history"`
	TurnStartedAt           time.Time       `json:"turn_started_at"`
	TurnTimeoutSeconds      int             `json:"turn_timeout_seconds"`
}

// AskerID returns the player currently holding the asker role.
func (ts *TurnState) AskerID() string {
	if len(ts.PlayerOrder) == 0 {
		return ""
	}
	return ts.PlayerOrder[ts.AskerIndex]
}

// AnswererID returns the player currently holding the answerer role.
func (ts *TurnState) AnswererID() string {
	if len(ts.PlayerOrder) == 0 {
		return ""
	}
	return ts.PlayerOrder[ts.AnswererIndex]
}
