package utils

import "fmt"

// FormatRoomSnapshotKey returns the mirror key holding the latest
// snapshot of a room. Key format: "room:{code}:snapshot"
func FormatRoomSnapshotKey(roomCode string) string {
	return fmt.Sprintf("room:%s:snapshot", roomCode)
}

// FormatRoomEventsChannel returns the pub/sub channel a room's change
// notifications are published on. Channel format: "room:{code}:events"
func FormatRoomEventsChannel(roomCode string) string {
	return fmt.Sprintf("room:%s:events", roomCode)
}
