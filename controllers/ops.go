package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Candor/services/game"
	redis "Candor/services/redis"
)

// @Summary Previews reclamation
// @Description Read-only dry run of both sweeps: who would be marked stale, who would be evicted, which rooms would be destroyed
// @Tags ops
// @Produce json
// @Success 200 {object} object{preview=object}
// @Router /ops/reclamation/preview [get]
func PreviewReclamation(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"preview": engine.PreviewReclamation()})
	}
}

// @Summary Runs the liveness sweep
// @Description Marks players with stale heartbeats as disconnected, transferring host where needed
// @Tags ops
// @Produce json
// @Success 200 {object} object{marked=integer}
// @Router /ops/reclamation/liveness [post]
func TriggerLivenessSweep(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"marked": engine.RunLivenessSweep()})
	}
}

// @Summary Runs the eviction sweep
// @Description Evicts players past the disconnect grace period and destroys rooms that are empty or expired
// @Tags ops
// @Produce json
// @Success 200 {object} object{evicted=integer}
// @Router /ops/reclamation/eviction [post]
func TriggerEvictionSweep(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"evicted": engine.RunEvictionSweep()})
	}
}

// @Summary Reads the mirrored snapshot
// @Description Returns the last room snapshot mirrored to Redis, as the notification feed publishes it
// @Tags ops
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} object{state=object}
// @Failure 404 {object} object{error=string}
// @Router /ops/rooms/{code}/mirror [get]
func GetRoomMirror(rc *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := rc.GetRoomSnapshot(c.Param("code"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no mirrored snapshot for that room"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": snap})
	}
}
