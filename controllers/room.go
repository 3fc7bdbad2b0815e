package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Candor/services/game"
	"Candor/utils"
)

// @Summary Health check
// @Description Returns pong when the server is up
// @Tags status
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /ping [get]
func Ping() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	}
}

type createRoomRequest struct {
	HostName          string `json:"host_name" binding:"required"`
	HostPlayerID      string `json:"host_player_id" binding:"required"`
	StartLevel        int    `json:"start_level"`
	QuestionsPerLevel int    `json:"questions_per_level"`
}

// @Summary Creates a new room
// @Description Creates a room with the requester as host and returns the room code plus the host's session token
// @Tags rooms
// @Accept json
// @Produce json
// @Param request body controllers.createRoomRequest true "Room settings"
// @Success 200 {object} object{room=object,player=object,session_token=string}
// @Failure 400 {object} object{error=string,kind=string}
// @Failure 503 {object} object{error=string,kind=string}
// @Router /rooms [post]
func CreateRoom(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		room, host, err := engine.CreateRoom(req.HostName, req.HostPlayerID, game.RoomSettings{
			StartLevel:        req.StartLevel,
			QuestionsPerLevel: req.QuestionsPerLevel,
		})
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"room":          room,
			"player":        host,
			"session_token": host.SessionToken,
		})
	}
}

// @Summary Gives info of a room
// @Description Given a room code, returns the room header (status, settings, version)
// @Tags rooms
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} object{room=object}
// @Failure 404 {object} object{error=string,kind=string}
// @Router /rooms/{code} [get]
func GetRoom(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, err := engine.GetRoom(c.Param("code"))
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": room})
	}
}

// @Summary Lists the players in a room
// @Description Returns the roster ordered by join time
// @Tags rooms
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} object{players=array}
// @Failure 404 {object} object{error=string,kind=string}
// @Router /rooms/{code}/players [get]
func ListPlayers(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		players, err := engine.ListPlayers(c.Param("code"))
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"players": players})
	}
}

// @Summary Full room state
// @Description Returns the versioned snapshot clients render from (room, roster and turn state)
// @Tags rooms
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} object{state=object}
// @Failure 404 {object} object{error=string,kind=string}
// @Router /rooms/{code}/state [get]
func GetRoomState(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := engine.RoomState(c.Param("code"))
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": snap})
	}
}

type joinRoomRequest struct {
	Name     string `json:"name" binding:"required"`
	PlayerID string `json:"player_id" binding:"required"`
}

// @Summary Joins a room
// @Description Adds a player to a lobby room and returns their session token
// @Tags rooms
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.joinRoomRequest true "Player identity"
// @Success 200 {object} object{player=object,session_token=string}
// @Failure 404 {object} object{error=string,kind=string}
// @Failure 409 {object} object{error=string,kind=string}
// @Router /rooms/{code}/join [post]
func JoinRoom(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		player, err := engine.Join(c.Param("code"), req.Name, req.PlayerID)
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"player":        player,
			"session_token": player.SessionToken,
		})
	}
}

type playerActionRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

// @Summary Starts the game
// @Description Host-only. Freezes questions-per-level to the roster size and deals the first turn
// @Tags rooms
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.playerActionRequest true "Requesting player"
// @Success 200 {object} object{turn=object}
// @Failure 403 {object} object{error=string,kind=string}
// @Failure 409 {object} object{error=string,kind=string}
// @Router /rooms/{code}/start [post]
func StartGame(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		turn, err := engine.StartGame(c.Param("code"), req.PlayerID)
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"turn": turn})
	}
}

// @Summary Leaves a room
// @Description Removes the requesting player. Host transfer and game wind-down happen as side effects
// @Tags rooms
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.playerActionRequest true "Leaving player"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string,kind=string}
// @Router /rooms/{code}/leave [post]
func LeaveRoom(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := engine.Leave(c.Param("code"), req.PlayerID); err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "left room"})
	}
}

type kickRequest struct {
	RequesterID string `json:"requester_id" binding:"required"`
	TargetID    string `json:"target_id" binding:"required"`
}

// @Summary Kicks a player
// @Description Host-only removal of another player
// @Tags rooms
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.kickRequest true "Requester and target"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string,kind=string}
// @Failure 404 {object} object{error=string,kind=string}
// @Router /rooms/{code}/kick [post]
func KickPlayer(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req kickRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := engine.Kick(c.Param("code"), req.RequesterID, req.TargetID); err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "player kicked"})
	}
}

// @Summary Heartbeat
// @Description Refreshes the caller's liveness timestamp. Never bumps the room version
// @Tags rooms
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.playerActionRequest true "Player reporting in"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string,kind=string}
// @Router /rooms/{code}/heartbeat [post]
func Heartbeat(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := engine.Heartbeat(c.Param("code"), req.PlayerID); err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "heartbeat recorded"})
	}
}
