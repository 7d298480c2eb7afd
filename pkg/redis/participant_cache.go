package redis

import (
	"context"
	"fmt"
	"time"

	"messagely/internal/model"

	"github.com/redis/go-redis/v9"
)

const participantsKeyPrefix = "messagely:msg:"

// ParticipantCache keeps the sender/recipient pair of each message in a
// Redis hash. The pair never changes, so entries are only ever written once
// and expire after ttl.
type ParticipantCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewParticipantCache(client *redis.Client, ttl time.Duration) *ParticipantCache {
	return &ParticipantCache{client: client, ttl: ttl}
}

// ParticipantsKey returns the hash key for message id.
func ParticipantsKey(id string) string {
	return participantsKeyPrefix + id + ":participants"
}

// GetParticipants reports a miss with ok == false.
func (c *ParticipantCache) GetParticipants(ctx context.Context, id string) (model.Participants, bool, error) {
	fields, err := c.client.HGetAll(ctx, ParticipantsKey(id)).Result()
	if err != nil {
		return model.Participants{}, false, fmt.Errorf("redis hgetall: %w", err)
	}
	from, to := fields["from"], fields["to"]
	if from == "" || to == "" {
		return model.Participants{}, false, nil
	}
	return model.Participants{From: from, To: to}, true, nil
}

// SetParticipants stores p for message id.
func (c *ParticipantCache) SetParticipants(ctx context.Context, id string, p model.Participants) error {
	key := ParticipantsKey(id)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "from", p.From, "to", p.To)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}
