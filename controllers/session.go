package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Candor/services/game"
	"Candor/utils"
)

type reconnectRequest struct {
	PlayerID     string `json:"player_id" binding:"required"`
	SessionToken string `json:"session_token" binding:"required"`
}

// @Summary Reconnects a player
// @Description Validates the session token issued at join time and returns the full room snapshot. Any mismatch is a 401, with no hint of which check failed
// @Tags sessions
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.reconnectRequest true "Player identity and session token"
// @Success 200 {object} object{state=object}
// @Failure 401 {object} object{error=string,kind=string}
// @Router /rooms/{code}/reconnect [post]
func Reconnect(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reconnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		snap, err := engine.Reconnect(c.Param("code"), req.PlayerID, req.SessionToken)
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": snap})
	}
}
