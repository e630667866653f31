package queue

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/rueidis"
)

var resyncScript = rueidis.NewLuaScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], ARGV[1])
	return floor
end
return current
`)

type RedisNumberSequencer struct {
	client rueidis.Client
	key    string
}

func NewRedisNumberSequencer(client rueidis.Client, key string) *RedisNumberSequencer {
	return &RedisNumberSequencer{
		client: client,
		key:    key,
	}
}

func (r *RedisNumberSequencer) Next(ctx context.Context) (int64, error) {
	cmd := r.client.B().Incr().Key(r.key).Build()
	n, err := r.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, errors.Wrap(err, "incr token number")
	}

	return n, nil
}

func (r *RedisNumberSequencer) Resync(ctx context.Context, floor int64) error {
	args := []string{strconv.FormatInt(floor, 10)}
	if err := resyncScript.Exec(ctx, r.client, []string{r.key}, args).Error(); err != nil {
		return errors.Wrap(err, "resync token number")
	}

	return nil
}

func (r *RedisNumberSequencer) Ping(ctx context.Context) error {
	return r.client.Do(ctx, r.client.B().Ping().Build()).Error()
}
