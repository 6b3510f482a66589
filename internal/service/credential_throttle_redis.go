package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// throttleFailScript bumps one key atomically and returns the new delay in
// milliseconds. ARGV: now_ms, base_ms, multiplier, max_ms, reset_ms, free.
var throttleFailScript = redis.NewScript(`
local now_ms = tonumber(ARGV[1])
local base_ms = tonumber(ARGV[2])
local multiplier = tonumber(ARGV[3])
local max_ms = tonumber(ARGV[4])
local reset_ms = tonumber(ARGV[5])
local free = tonumber(ARGV[6])

local failures = tonumber(redis.call("HGET", KEYS[1], "failures") or "0")
local last_ms = tonumber(redis.call("HGET", KEYS[1], "last_ms") or "0")
if last_ms == 0 or (now_ms - last_ms) > reset_ms then
  failures = 0
end
failures = failures + 1

local delay = 0
if failures > free then
  delay = math.floor(base_ms * (multiplier ^ (failures - free - 1)))
end
if delay > max_ms then
  delay = max_ms
end

redis.call("HSET", KEYS[1], "failures", tostring(failures), "last_ms", tostring(now_ms), "until_ms", tostring(now_ms + delay))
redis.call("PEXPIRE", KEYS[1], reset_ms + delay + 60000)
return delay
`)

// RedisCredentialThrottle shares throttle state across API replicas.
type RedisCredentialThrottle struct {
	client redis.UniversalClient
	prefix string
	policy ThrottlePolicy
	now    func() time.Time
}

func NewRedisCredentialThrottle(client redis.UniversalClient, prefix string, policy ThrottlePolicy) *RedisCredentialThrottle {
	if prefix == "" {
		prefix = "cycliti"
	}
	return &RedisCredentialThrottle{
		client: client,
		prefix: prefix + ":throttle",
		policy: policy.normalized(),
		now:    time.Now,
	}
}

func (g *RedisCredentialThrottle) Cooldown(ctx context.Context, scope ThrottleScope, identity, ip string) (time.Duration, error) {
	nowMS := g.now().UnixMilli()
	var longest time.Duration
	for _, key := range throttleKeys(scope, identity, ip) {
		values, err := g.client.HMGet(ctx, g.prefix+":"+key, "last_ms", "until_ms").Result()
		if err != nil {
			return 0, err
		}
		if len(values) != 2 || values[0] == nil || values[1] == nil {
			continue
		}
		lastMS, err := redisInt64(values[0])
		if err != nil {
			return 0, err
		}
		untilMS, err := redisInt64(values[1])
		if err != nil {
			return 0, err
		}
		if nowMS-lastMS > g.policy.ResetWindow.Milliseconds() || untilMS <= nowMS {
			continue
		}
		longest = max(longest, time.Duration(untilMS-nowMS)*time.Millisecond)
	}
	return longest, nil
}

func (g *RedisCredentialThrottle) Fail(ctx context.Context, scope ThrottleScope, identity, ip string) (time.Duration, error) {
	nowMS := g.now().UnixMilli()
	var longest time.Duration
	for _, key := range throttleKeys(scope, identity, ip) {
		res, err := throttleFailScript.Run(ctx, g.client, []string{g.prefix + ":" + key},
			nowMS,
			g.policy.BaseDelay.Milliseconds(),
			g.policy.Multiplier,
			g.policy.MaxDelay.Milliseconds(),
			g.policy.ResetWindow.Milliseconds(),
			g.policy.FreeAttempts,
		).Result()
		if err != nil {
			return 0, err
		}
		delayMS, err := redisInt64(res)
		if err != nil {
			return 0, err
		}
		longest = max(longest, time.Duration(max(delayMS, 0))*time.Millisecond)
	}
	return longest, nil
}

func (g *RedisCredentialThrottle) Clear(ctx context.Context, scope ThrottleScope, identity, ip string) error {
	keys := throttleKeys(scope, identity, ip)
	return g.client.Del(ctx, g.prefix+":"+keys[0], g.prefix+":"+keys[1]).Err()
}

func redisInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis value type %T", v)
	}
}
