package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Key families written by the login throttle and the user list cache.
const (
	RedisFamilyThrottle  = "throttle"
	RedisFamilyListCache = "list_cache"
	RedisFamilyOther     = "other"
)

// InstrumentRedisClient attaches a command hook that records latency and
// outcome per key family, plus a pool usage gauge for the client.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	hook, err := newRedisFamilyHook(otel.Meter(instrumentationName), client)
	if err != nil {
		logger.Warn("redis instrumentation disabled", "error", err)
		return
	}
	client.AddHook(hook)
}

type redisFamilyHook struct {
	commands  metric.Int64Counter
	latency   metric.Float64Histogram
	cacheRead metric.Int64Counter
}

func newRedisFamilyHook(meter metric.Meter, client redis.UniversalClient) (*redisFamilyHook, error) {
	commands, err := meter.Int64Counter(
		"cycliti.redis.commands",
		metric.WithDescription("Redis commands by key family and outcome"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"cycliti.redis.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency by key family"),
	)
	if err != nil {
		return nil, err
	}
	cacheRead, err := meter.Int64Counter(
		"cycliti.user_list_cache.reads",
		metric.WithDescription("User list cache lookups served by redis, by result"),
	)
	if err != nil {
		return nil, err
	}
	inUse, err := meter.Int64ObservableGauge(
		"cycliti.redis.pool.in_use",
		metric.WithDescription("Redis connections currently checked out of the pool"),
	)
	if err != nil {
		return nil, err
	}
	if _, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := client.PoolStats()
		if stats == nil {
			return nil
		}
		o.ObserveInt64(inUse, int64(stats.TotalConns)-int64(stats.IdleConns))
		return nil
	}, inUse); err != nil {
		return nil, err
	}
	return &redisFamilyHook{commands: commands, latency: latency, cacheRead: cacheRead}, nil
}

func (h *redisFamilyHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *redisFamilyHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, cmd, time.Since(start))
		return err
	}
}

func (h *redisFamilyHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)
		for _, cmd := range cmds {
			h.observe(ctx, cmd, elapsed)
		}
		return err
	}
}

func (h *redisFamilyHook) observe(ctx context.Context, cmd redis.Cmder, elapsed time.Duration) {
	name := strings.ToLower(cmd.Name())
	family := RedisKeyFamily(cmd.Args())
	outcome := redisOutcome(cmd.Err())
	h.commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", name),
		attribute.String("family", family),
		attribute.String("outcome", outcome),
	))
	h.latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("command", name),
		attribute.String("family", family),
	))
	if family == RedisFamilyListCache && name == "get" {
		result := "hit"
		if outcome != "ok" {
			result = outcome
		}
		h.cacheRead.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

// RedisKeyFamily reports which part of the application owns the first key
// of a command. EVALSHA and EVAL carry the key after the script and count.
func RedisKeyFamily(args []any) string {
	if len(args) < 2 {
		return RedisFamilyOther
	}
	idx := 1
	if name, _ := args[0].(string); strings.EqualFold(name, "evalsha") || strings.EqualFold(name, "eval") {
		idx = 3
	}
	if len(args) <= idx {
		return RedisFamilyOther
	}
	key, ok := args[idx].(string)
	if !ok {
		return RedisFamilyOther
	}
	switch {
	case strings.Contains(key, ":throttle:"):
		return RedisFamilyThrottle
	case strings.Contains(key, ":list_cache:"):
		return RedisFamilyListCache
	default:
		return RedisFamilyOther
	}
}

func redisOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, redis.Nil):
		return "miss"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "timeout"
		}
		return "error"
	}
}
