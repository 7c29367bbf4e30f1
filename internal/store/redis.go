// Package store holds the persistence adapters. Each adapter keeps one
// history record and one member-list record per room, serialized as whole
// JSON arrays and overwritten on every write.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"chat-relay/internal/chat"
)

const (
	historyKeyPrefix = "chat:history:"
	membersKeyPrefix = "chat:members:"
)

// Redis persists room state as JSON blobs keyed by room name.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) SaveHistory(ctx context.Context, room string, history []chat.Message) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return s.client.Set(ctx, historyKeyPrefix+room, data, 0).Err()
}

func (s *Redis) SaveMembers(ctx context.Context, room string, members []string) error {
	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	return s.client.Set(ctx, membersKeyPrefix+room, data, 0).Err()
}

// LoadHistory returns the persisted history for a room, nil when the room
// has no record.
func (s *Redis) LoadHistory(ctx context.Context, room string) ([]chat.Message, error) {
	data, err := s.client.Get(ctx, historyKeyPrefix+room).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var history []chat.Message
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return history, nil
}

func (s *Redis) LoadMembers(ctx context.Context, room string) ([]string, error) {
	data, err := s.client.Get(ctx, membersKeyPrefix+room).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("unmarshal members: %w", err)
	}
	return members, nil
}

// Rooms lists every room that has a persisted record of either kind.
func (s *Redis) Rooms(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, prefix := range []string{historyKeyPrefix, membersKeyPrefix} {
		var cursor uint64
		for {
			keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 100).Result()
			if err != nil {
				return nil, err
			}
			for _, key := range keys {
				seen[strings.TrimPrefix(key, prefix)] = true
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}
	rooms := make([]string, 0, len(seen))
	for room := range seen {
		rooms = append(rooms, room)
	}
	return rooms, nil
}
