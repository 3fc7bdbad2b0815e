package handlers

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"

	redis_models "Candor/models/redis"
	"Candor/services/game"
	"Candor/services/redis"
	socketio_types "Candor/services/socket_io/types"
)

// HandleSubscribeRoom joins the client to the socket room for a game room
// and makes sure a single pump goroutine is relaying that room's Redis
// event feed to every subscriber.
func HandleSubscribeRoom(redisClient *redis.RedisClient, client *socket.Socket,
	engine *game.Engine, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "room code is required"})
			return
		}
		roomCode, ok := args[0].(string)
		if !ok || roomCode == "" {
			client.Emit("error", gin.H{"error": "room code is required"})
			return
		}
		roomCode = strings.ToUpper(strings.TrimSpace(roomCode))

		snap, err := engine.RoomState(roomCode)
		if err != nil {
			client.Emit("error", gin.H{"error": "room does not exist"})
			return
		}

		client.Join(socket.Room(roomCode))
		// Hand the subscriber the current state so they never render stale
		client.Emit("room_update", gin.H{"type": "subscribed", "snapshot": snap})

		startRoomPump(redisClient, sio, roomCode)
	}
}

// startRoomPump relays the room's pub/sub feed into the socket room until
// the room is destroyed. One pump per room, shared by all subscribers.
func startRoomPump(redisClient *redis.RedisClient, sio *socketio_types.SocketServer, roomCode string) {
	sub := redisClient.SubscribeRoomEvents(roomCode)
	if !sio.RegisterPump(roomCode, func() { _ = sub.Close() }) {
		_ = sub.Close()
		return
	}

	go func() {
		defer sio.StopPump(roomCode)
		for msg := range sub.Channel() {
			var event redis_models.RoomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[SOCKET-ERROR] Bad event payload for room %s: %v", roomCode, err)
				continue
			}
			sio.Sio_server.To(socket.Room(roomCode)).Emit("room_update", event)
			if event.Type == redis_models.EventRoomDestroyed {
				log.Printf("[SOCKET] Room %s destroyed, stopping event pump", roomCode)
				return
			}
		}
	}()
}

// HandleHeartbeat refreshes the player's liveness timestamp over the socket
// so clients do not need a parallel HTTP loop.
func HandleHeartbeat(engine *game.Engine, client *socket.Socket, playerID string) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "room code is required"})
			return
		}
		roomCode, ok := args[0].(string)
		if !ok || roomCode == "" {
			client.Emit("error", gin.H{"error": "room code is required"})
			return
		}

		if err := engine.Heartbeat(roomCode, playerID); err != nil {
			client.Emit("error", gin.H{"error": "heartbeat rejected"})
			return
		}
	}
}

// HandleDisconnecting drops the socket from the connection map. The game
// roster is untouched here. Liveness is heartbeat-driven, so a flaky socket
// never evicts anyone by itself.
func HandleDisconnecting(playerID string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[DISCONNECT] Socket closing for player %s", playerID)
		sio.RemoveConnection(playerID)
	}
}
