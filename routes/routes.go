package routes

import (
	"Candor/controllers"
	"Candor/services/game"
	"Candor/services/redis"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, engine *game.Engine, redisClient *redis.RedisClient) {
	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/")

	api.GET("/ping", controllers.Ping())

	rooms := api.Group("/rooms")
	{
		rooms.POST("", controllers.CreateRoom(engine))
		rooms.GET("/:code", controllers.GetRoom(engine))
		rooms.GET("/:code/players", controllers.ListPlayers(engine))
		rooms.GET("/:code/state", controllers.GetRoomState(engine))

		rooms.POST("/:code/join", controllers.JoinRoom(engine))
		rooms.POST("/:code/start", controllers.StartGame(engine))
		rooms.POST("/:code/leave", controllers.LeaveRoom(engine))
		rooms.POST("/:code/kick", controllers.KickPlayer(engine))
		rooms.POST("/:code/heartbeat", controllers.Heartbeat(engine))

		rooms.GET("/:code/suggestions", controllers.SuggestQuestions(engine))
		rooms.POST("/:code/question", controllers.SetQuestion(engine))
		rooms.POST("/:code/advance", controllers.AdvanceTurn(engine))
		rooms.POST("/:code/reroll", controllers.RerollQuestion(engine))
		rooms.POST("/:code/check-timeout", controllers.CheckTurnTimeout(engine))

		rooms.POST("/:code/reconnect", controllers.Reconnect(engine))
	}

	ops := api.Group("/ops")
	{
		ops.GET("/reclamation/preview", controllers.PreviewReclamation(engine))
		ops.POST("/reclamation/liveness", controllers.TriggerLivenessSweep(engine))
		ops.POST("/reclamation/eviction", controllers.TriggerEvictionSweep(engine))
		ops.GET("/rooms/:code/mirror", controllers.GetRoomMirror(redisClient))
	}
}
