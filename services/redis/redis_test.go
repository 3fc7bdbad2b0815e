package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	redis_models "Candor/models/redis"
	redis_utils "Candor/services/redis/utils"
)

func testClient(t *testing.T) *RedisClient {
	t.Helper()
	rc, err := InitRedis("localhost:6379", 0)
	if err != nil {
		t.Skipf("Redis not reachable: %v", err)
	}
	t.Cleanup(func() { CloseRedis(rc) })
	return rc
}

func sampleSnapshot(code string) *redis_models.RoomSnapshot {
	return &redis_models.RoomSnapshot{
		Code:              code,
		HostPlayerID:      "p1",
		Status:            "lobby",
		StartLevel:        5,
		QuestionsPerLevel: 4,
		CreatedAt:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Version:           1,
		Players: []redis_models.PlayerSnapshot{
			{ID: "p1", Name: "Ana", IsHost: true, ConnectionState: "connected"},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	rc := testClient(t)
	code := "TST1"
	defer rc.CleanupKeys([]string{redis_utils.FormatRoomSnapshotKey(code)})

	snap := sampleSnapshot(code)
	assert.NoError(t, rc.SaveRoomSnapshot(snap))

	got, err := rc.GetRoomSnapshot(code)
	assert.NoError(t, err)
	assert.Equal(t, snap.Code, got.Code)
	assert.Equal(t, snap.Version, got.Version)
	assert.Len(t, got.Players, 1)

	assert.NoError(t, rc.DeleteRoomSnapshot(code))
	_, err = rc.GetRoomSnapshot(code)
	assert.Error(t, err, "deleted snapshot must not resolve")
}

func TestPublishRoomEvent(t *testing.T) {
	rc := testClient(t)
	code := "TST2"
	defer rc.CleanupKeys([]string{redis_utils.FormatRoomSnapshotKey(code)})

	sub := rc.SubscribeRoomEvents(code)
	defer sub.Close()
	// Make sure the subscription is live before publishing
	if _, err := sub.Receive(rc.Ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	event := &redis_models.RoomEvent{
		Type:     redis_models.EventPlayerJoined,
		RoomCode: code,
		Version:  2,
		At:       time.Now(),
		Snapshot: sampleSnapshot(code),
	}
	assert.NoError(t, rc.PublishRoomEvent(event))

	select {
	case msg := <-sub.Channel():
		var got redis_models.RoomEvent
		assert.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, redis_models.EventPlayerJoined, got.Type)
		assert.Equal(t, uint64(2), got.Version)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received on the room channel")
	}

	// Publishing also mirrors the snapshot
	mirrored, err := rc.GetRoomSnapshot(code)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), mirrored.Version)
}

func TestDestroyEventDropsMirror(t *testing.T) {
	rc := testClient(t)
	code := "TST3"

	assert.NoError(t, rc.SaveRoomSnapshot(sampleSnapshot(code)))

	event := &redis_models.RoomEvent{
		Type:     redis_models.EventRoomDestroyed,
		RoomCode: code,
		Version:  3,
		At:       time.Now(),
	}
	assert.NoError(t, rc.PublishRoomEvent(event))

	_, err := rc.GetRoomSnapshot(code)
	assert.Error(t, err, "destroy must remove the mirrored snapshot")
}

func TestKeyFormats(t *testing.T) {
	assert.Equal(t, "room:ABCD:snapshot", redis_utils.FormatRoomSnapshotKey("ABCD"))
	assert.Equal(t, "room:ABCD:events", redis_utils.FormatRoomEventsChannel("ABCD"))
}
