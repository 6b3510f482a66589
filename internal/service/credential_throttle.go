package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"sync"
	"time"
)

type ThrottleScope string

const ThrottleScopeLogin ThrottleScope = "login"

// ThrottlePolicy grows the cooldown exponentially once FreeAttempts
// failures accumulate inside ResetWindow.
type ThrottlePolicy struct {
	FreeAttempts int
	BaseDelay    time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	ResetWindow  time.Duration
}

func (p ThrottlePolicy) normalized() ThrottlePolicy {
	if p.FreeAttempts < 0 {
		p.FreeAttempts = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 2 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = 5 * time.Minute
	}
	if p.ResetWindow <= 0 {
		p.ResetWindow = 30 * time.Minute
	}
	return p
}

func (p ThrottlePolicy) delayFor(failures int) time.Duration {
	if failures <= p.FreeAttempts {
		return 0
	}
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(failures-p.FreeAttempts-1)))
	return min(delay, p.MaxDelay)
}

// CredentialThrottle slows down repeated credential failures per identity
// and per client IP. The longer of both cooldowns applies.
type CredentialThrottle interface {
	Cooldown(ctx context.Context, scope ThrottleScope, identity, ip string) (time.Duration, error)
	Fail(ctx context.Context, scope ThrottleScope, identity, ip string) (time.Duration, error)
	Clear(ctx context.Context, scope ThrottleScope, identity, ip string) error
}

type NoopCredentialThrottle struct{}

func (NoopCredentialThrottle) Cooldown(context.Context, ThrottleScope, string, string) (time.Duration, error) {
	return 0, nil
}

func (NoopCredentialThrottle) Fail(context.Context, ThrottleScope, string, string) (time.Duration, error) {
	return 0, nil
}

func (NoopCredentialThrottle) Clear(context.Context, ThrottleScope, string, string) error {
	return nil
}

type throttleEntry struct {
	failures      int
	lastFailure   time.Time
	cooldownUntil time.Time
}

// MemoryCredentialThrottle keeps state in process; used when Redis is off.
type MemoryCredentialThrottle struct {
	mu      sync.Mutex
	policy  ThrottlePolicy
	entries map[string]throttleEntry
	now     func() time.Time
}

func NewMemoryCredentialThrottle(policy ThrottlePolicy) *MemoryCredentialThrottle {
	return &MemoryCredentialThrottle{
		policy:  policy.normalized(),
		entries: make(map[string]throttleEntry),
		now:     time.Now,
	}
}

func (g *MemoryCredentialThrottle) Cooldown(_ context.Context, scope ThrottleScope, identity, ip string) (time.Duration, error) {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	var longest time.Duration
	for _, key := range throttleKeys(scope, identity, ip) {
		longest = max(longest, g.remainingLocked(now, key))
	}
	return longest, nil
}

func (g *MemoryCredentialThrottle) Fail(_ context.Context, scope ThrottleScope, identity, ip string) (time.Duration, error) {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	var longest time.Duration
	for _, key := range throttleKeys(scope, identity, ip) {
		e := g.entries[key]
		if e.lastFailure.IsZero() || now.Sub(e.lastFailure) > g.policy.ResetWindow {
			e.failures = 0
		}
		e.failures++
		e.lastFailure = now
		delay := g.policy.delayFor(e.failures)
		e.cooldownUntil = now.Add(delay)
		g.entries[key] = e
		longest = max(longest, delay)
	}
	return longest, nil
}

func (g *MemoryCredentialThrottle) Clear(_ context.Context, scope ThrottleScope, identity, ip string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, key := range throttleKeys(scope, identity, ip) {
		delete(g.entries, key)
	}
	return nil
}

func (g *MemoryCredentialThrottle) remainingLocked(now time.Time, key string) time.Duration {
	e, ok := g.entries[key]
	if !ok {
		return 0
	}
	if now.Sub(e.lastFailure) > g.policy.ResetWindow {
		delete(g.entries, key)
		return 0
	}
	if !now.Before(e.cooldownUntil) {
		return 0
	}
	return e.cooldownUntil.Sub(now)
}

// throttleKeys returns the identity key then the IP key. Values are hashed
// so emails never appear in the backing store.
func throttleKeys(scope ThrottleScope, identity, ip string) [2]string {
	id := strings.TrimSpace(strings.ToLower(identity))
	if id == "" {
		id = "anonymous"
	}
	addr := strings.TrimSpace(strings.ToLower(ip))
	if addr == "" {
		addr = "unknown"
	}
	return [2]string{
		string(scope) + ":id:" + hashToken(id),
		string(scope) + ":ip:" + hashToken(addr),
	}
}

func hashToken(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
