package socket_io

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"

	"Candor/services/game"
	"Candor/services/redis"
	"Candor/services/socket_io/handlers"
	socketio_types "Candor/services/socket_io/types"
)

type MySocketServer socketio_types.SocketServer

// Start mounts the socket.io endpoint on the router. Clients identify with
// a player_id in the handshake auth and subscribe to rooms to receive the
// versioned room_update feed.
func (sio *MySocketServer) Start(router *gin.Engine, engine *game.Engine, redisClient *redis.RedisClient) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	(*socketio_types.SocketServer)(sio).Init()

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		playerID, err := playerIDFromHandshake(client)
		if err != nil {
			client.Emit("error", gin.H{"error": "missing player_id in handshake auth"})
			_ = client.Disconnect(true)
			return
		}

		(*socketio_types.SocketServer)(sio).AddConnection(playerID, client)
		fmt.Println("An individual just connected!: ", playerID)

		// Subscribe to a room's event feed
		client.On("subscribe_room", handlers.HandleSubscribeRoom(redisClient, client, engine, (*socketio_types.SocketServer)(sio)))

		// Liveness over the socket instead of HTTP polling
		client.On("heartbeat", handlers.HandleHeartbeat(engine, client, playerID))

		// NOTE: will remove sio connection from map
		client.On("disconnecting", handlers.HandleDisconnecting(playerID, (*socketio_types.SocketServer)(sio)))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	fmt.Println("Socket server started")
}

func playerIDFromHandshake(client *socket.Socket) (string, error) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("authentication data missing")
	}
	playerID, exists := authData["player_id"].(string)
	if !exists || playerID == "" {
		return "", fmt.Errorf("player_id not found in authentication")
	}
	return playerID, nil
}
