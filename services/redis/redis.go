package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	game_constants "Candor/constants/game"
	redis_models "Candor/models/redis"
	redis_utils "Candor/services/redis/utils"
)

// RedisClient handles Redis operations
type RedisClient struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(Addr string, DB int) *RedisClient {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		Client: client,
		Ctx:    context.Background(),
	}
}

// SaveRoomSnapshot mirrors the latest room snapshot so late subscribers
// and ops tooling can read current state without replaying events.
// Key format: "room:{code}:snapshot", TTL 24 hours.
func (rc *RedisClient) SaveRoomSnapshot(snap *redis_models.RoomSnapshot) error {
	key := redis_utils.FormatRoomSnapshotKey(snap.Code)
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("error marshaling room snapshot: %v", err)
	}
	return rc.Client.Set(rc.Ctx, key, data, game_constants.RoomSnapshotTTL).Err()
}

// GetRoomSnapshot retrieves the mirrored snapshot of a room.
func (rc *RedisClient) GetRoomSnapshot(roomCode string) (*redis_models.RoomSnapshot, error) {
	key := redis_utils.FormatRoomSnapshotKey(roomCode)
	data, err := rc.Client.Get(rc.Ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("error getting room snapshot: %v", err)
	}
	var snap redis_models.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("error unmarshaling room snapshot: %v", err)
	}
	return &snap, nil
}

// DeleteRoomSnapshot removes the mirrored snapshot of a room.
func (rc *RedisClient) DeleteRoomSnapshot(roomCode string) error {
	key := redis_utils.FormatRoomSnapshotKey(roomCode)
	if err := rc.Client.Del(rc.Ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting room snapshot: %v", err)
	}
	return nil
}

// PublishRoomEvent is the engine's notification feed: it refreshes the
// snapshot mirror and publishes the event on the room's channel. Room
// destruction drops the mirror instead of refreshing it.
func (rc *RedisClient) PublishRoomEvent(event *redis_models.RoomEvent) error {
	if event.Snapshot != nil {
		if err := rc.SaveRoomSnapshot(event.Snapshot); err != nil {
			return err
		}
	} else if event.Type == redis_models.EventRoomDestroyed {
		if err := rc.DeleteRoomSnapshot(event.RoomCode); err != nil {
			return err
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshaling room event: %v", err)
	}
	channel := redis_utils.FormatRoomEventsChannel(event.RoomCode)
	return rc.Client.Publish(rc.Ctx, channel, data).Err()
}

// SubscribeRoomEvents subscribes to a room's notification channel. The
// caller owns the returned subscription and must close it.
func (rc *RedisClient) SubscribeRoomEvents(roomCode string) *redis.PubSub {
	return rc.Client.Subscribe(rc.Ctx, redis_utils.FormatRoomEventsChannel(roomCode))
}

// CleanupKeys removes the specified keys from Redis
func (rc *RedisClient) CleanupKeys(keys []string) error {
	for _, key := range keys {
		if err := rc.Client.Del(rc.Ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to cleanup Redis key %s: %v", key, err)
		}
	}
	return nil
}
