package socketio_types

import (
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer holds the socket.io server, the player -> socket map and the
// set of room event pumps currently relaying the Redis feed.
type SocketServer struct {
	Sio_server *socket.Server
	// Map to track player id -> socket connections
	PlayerConnections map[string]*socket.Socket
	// Rooms with a running pump goroutine, keyed by room code
	roomPumps map[string]func()
	mutex     sync.RWMutex
}

func NewSocketServer() *SocketServer {
	s := &SocketServer{}
	s.Init()
	return s
}

// Init prepares the internal maps. Must run before the first connection.
func (s *SocketServer) Init() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.PlayerConnections == nil {
		s.PlayerConnections = make(map[string]*socket.Socket)
	}
	if s.roomPumps == nil {
		s.roomPumps = make(map[string]func())
	}
}

func (s *SocketServer) AddConnection(playerID string, socket *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.PlayerConnections[playerID] = socket
}

func (s *SocketServer) RemoveConnection(playerID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.PlayerConnections, playerID)
}

func (s *SocketServer) GetConnection(playerID string) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	socket, exists := s.PlayerConnections[playerID]
	return socket, exists
}

// RegisterPump records the stop function for a room's relay goroutine.
// Returns false when a pump for that room already runs.
func (s *SocketServer) RegisterPump(roomCode string, stop func()) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.roomPumps[roomCode]; exists {
		return false
	}
	s.roomPumps[roomCode] = stop
	return true
}

// StopPump stops and forgets the relay goroutine for a room, if any.
func (s *SocketServer) StopPump(roomCode string) {
	s.mutex.Lock()
	stop, exists := s.roomPumps[roomCode]
	if exists {
		delete(s.roomPumps, roomCode)
	}
	s.mutex.Unlock()
	if exists {
		stop()
	}
}
