package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Candor/services/game"
	"Candor/utils"
)

type setQuestionRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
	IsCustom bool   `json:"is_custom"`
}

// @Summary Sets the current question
// @Description Asker-only. Locks in the question the answerer must respond to
// @Tags turns
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.setQuestionRequest true "Question text"
// @Success 200 {object} object{turn=object}
// @Failure 400 {object} object{error=string,kind=string}
// @Failure 403 {object} object{error=string,kind=string}
// @Failure 409 {object} object{error=string,kind=string}
// @Router /rooms/{code}/question [post]
func SetQuestion(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setQuestionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		turn, err := engine.SetQuestion(c.Param("code"), req.PlayerID, req.Text, req.IsCustom)
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"turn": turn})
	}
}

type advanceTurnRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	// AnsweredQuestion is accepted for client convenience but the stored
	// question is what gets recorded.
	AnsweredQuestion string `json:"answered_question"`
}

// @Summary Advances the turn
// @Description Answerer-only. Records the answered question and rotates roles, descending a level when the count is met
// @Tags turns
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.advanceTurnRequest true "Answering player"
// @Success 200 {object} object{turn=object,finished=boolean}
// @Failure 403 {object} object{error=string,kind=string}
// @Failure 409 {object} object{error=string,kind=string}
// @Router /rooms/{code}/advance [post]
func AdvanceTurn(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req advanceTurnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		turn, err := engine.AdvanceTurn(c.Param("code"), req.PlayerID)
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}

		room, err := engine.GetRoom(c.Param("code"))
		finished := err == nil && room.Status == game.RoomStatusFinished
		c.JSON(http.StatusOK, gin.H{"turn": turn, "finished": finished})
	}
}

// @Summary Rerolls the current question
// @Description Answerer-only. Swaps the pending question for a fresh one, once per player per level
// @Tags turns
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param request body controllers.playerActionRequest true "Answering player"
// @Success 200 {object} object{turn=object}
// @Failure 403 {object} object{error=string,kind=string}
// @Failure 409 {object} object{error=string,kind=string}
// @Router /rooms/{code}/reroll [post]
func RerollQuestion(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		turn, err := engine.RerollQuestion(c.Param("code"), req.PlayerID)
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"turn": turn})
	}
}

// @Summary Suggests questions for the asker
// @Description Asker-only. Draws a few candidate questions at the current level, excluding everything already asked
// @Tags turns
// @Produce json
// @Param code path string true "Room code"
// @Param player_id query string true "Requesting player"
// @Success 200 {object} object{suggestions=array}
// @Failure 403 {object} object{error=string,kind=string}
// @Failure 409 {object} object{error=string,kind=string}
// @Router /rooms/{code}/suggestions [get]
func SuggestQuestions(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.Query("player_id")
		if playerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
			return
		}

		suggestions, err := engine.SuggestQuestions(c.Param("code"), playerID, 0)
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	}
}

// @Summary Checks the turn timer
// @Description Reports whether the current turn has outlived its timeout. A stale turn whose asker is gone is skipped
// @Tags turns
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} object{timed_out=boolean,skipped=boolean}
// @Failure 404 {object} object{error=string,kind=string}
// @Failure 409 {object} object{error=string,kind=string}
// @Router /rooms/{code}/check-timeout [post]
func CheckTurnTimeout(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := engine.CheckTurnTimeout(c.Param("code"))
		if err != nil {
			utils.WriteEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
