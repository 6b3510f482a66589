package loadgen

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	APIPrefix   string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status429     int64
	Status5xx     int64
}

// target builds one request; identity varies per tick so the login
// throttle sees both repeated and fresh emails.
type target func(ctx context.Context, base, identity string) (*http.Request, error)

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	targets := targetsForProfile(cfg.Profile, cfg.APIPrefix)
	if len(targets) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	type job struct {
		t        target
		identity string
	}
	var res Result
	jobs := make(chan job, cfg.Concurrency*2)
	var wg sync.WaitGroup

	for range cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				req, err := j.t(ctx, base, j.identity)
				if err != nil {
					atomic.AddInt64(&res.Failures, 1)
					continue
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&res.Failures, 1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				atomic.AddInt64(&res.TotalRequests, 1)
				switch {
				case resp.StatusCode == http.StatusTooManyRequests:
					atomic.AddInt64(&res.Status429, 1)
					atomic.AddInt64(&res.Status4xx, 1)
				case resp.StatusCode >= 200 && resp.StatusCode < 400:
					atomic.AddInt64(&res.Status2xx, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&res.Status4xx, 1)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&res.Status5xx, 1)
				}
			}
		}()
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)>>1|1))
	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return res, nil
		case <-ticker.C:
			identity := fmt.Sprintf("loadgen-%d@example.com", rng.IntN(8))
			select {
			case jobs <- job{t: targets[i%len(targets)], identity: identity}:
			case <-ctx.Done():
			}
			i++
		}
	}
}

func targetsForProfile(profile, prefix string) []target {
	health := get("/health/live")
	ready := get("/health/ready")
	me := get(prefix + "/users/me")
	login := func(ctx context.Context, base, identity string) (*http.Request, error) {
		form := url.Values{"username": {identity}, "password": {"not-the-password"}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+prefix+"/login/access-token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}
	recovery := func(ctx context.Context, base, identity string) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, base+prefix+"/password-recovery/"+url.PathEscape(identity), nil)
	}
	activate := func(ctx context.Context, base, identity string) (*http.Request, error) {
		body := fmt.Sprintf(`{"email":%q,"nonce":"bogus"}`, identity)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+prefix+"/users/activate-account", strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
	stravaBadState := get(prefix + "/strava/link?state=bad&code=x&scope=read")

	switch strings.ToLower(profile) {
	case "", "mixed":
		return []target{health, ready, login, me, recovery}
	case "auth":
		return []target{login, login, recovery, activate}
	case "error-heavy":
		return []target{me, stravaBadState, activate, login}
	default:
		return nil
	}
}

func get(path string) target {
	return func(ctx context.Context, base, _ string) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	}
}
