package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bowling_engine/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	queueKeyPrefix = "bowling:commands:"
	dedupKeyPrefix = "bowling:dedup:"

	// сколько BRPOP ждет, прежде чем перепроверить ctx
	popTimeout = time.Second
)

// RedisQueue - по списку redis на партицию. LPUSH на публикацию, BRPOP на чтение
type RedisQueue struct {
	client     *redis.Client
	partitions int
}

func NewRedisQueue(client *redis.Client, partitions int) *RedisQueue {
	if partitions < 1 {
		partitions = 1
	}
	return &RedisQueue{client: client, partitions: partitions}
}

func (q *RedisQueue) Partitions() int {
	return q.partitions
}

func (q *RedisQueue) key(partition int) string {
	return fmt.Sprintf("%s%d", queueKeyPrefix, partition)
}

func (q *RedisQueue) Publish(ctx context.Context, cmds ...domain.Command) error {
	if len(cmds) == 0 {
		return nil
	}

	// порядок внутри партиции сохраняется: команды уходят одним пайплайном
	pipe := q.client.Pipeline()
	for _, cmd := range cmds {
		payload, err := json.Marshal(cmd)
		if err != nil {
			return fmt.Errorf("marshal command %s: %w", cmd.ID, err)
		}
		pipe.LPush(ctx, q.key(Partition(cmd.GameID, q.partitions)), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish commands: %w", err)
	}
	return nil
}

func (q *RedisQueue) Consume(ctx context.Context, partition int) (domain.Command, error) {
	key := q.key(partition)
	for {
		if err := ctx.Err(); err != nil {
			return domain.Command{}, err
		}

		res, err := q.client.BRPop(ctx, popTimeout, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return domain.Command{}, ctx.Err()
			}
			if errors.Is(err, redis.ErrClosed) {
				return domain.Command{}, ErrClosed
			}
			return domain.Command{}, fmt.Errorf("consume partition %d: %w", partition, err)
		}

		// res[0] - ключ, res[1] - значение
		var cmd domain.Command
		if err := json.Unmarshal([]byte(res[1]), &cmd); err != nil {
			return domain.Command{}, fmt.Errorf("unmarshal command: %w", err)
		}
		return cmd, nil
	}
}

// RedisDeduper хранит id принятых сообщений ключами с TTL
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupKeyPrefix+id, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim message %s: %w", id, err)
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, id string) error {
	return d.client.Del(ctx, dedupKeyPrefix+id).Err()
}
