package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRunDrivesProfileEndpoints(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]int{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Method+" "+r.URL.Path]++
		mu.Unlock()
		switch {
		case strings.HasPrefix(r.URL.Path, "/health/"):
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/api/v1/login/access-token":
			if err := r.ParseForm(); err != nil || r.PostForm.Get("username") == "" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	res, err := Run(context.Background(), Config{
		BaseURL:     srv.URL,
		Profile:     "mixed",
		Duration:    600 * time.Millisecond,
		RPS:         50,
		Concurrency: 3,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalRequests == 0 || res.Failures != 0 || res.Status5xx != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Status429 == 0 || res.Status2xx == 0 {
		t.Fatalf("expected both healthy and throttled answers: %+v", res)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, key := range []string{"GET /health/live", "POST /api/v1/login/access-token", "GET /api/v1/users/me"} {
		if seen[key] == 0 {
			t.Fatalf("expected %s to be exercised, seen=%v", key, seen)
		}
	}
}

func TestRunRejectsUnknownProfile(t *testing.T) {
	if _, err := Run(context.Background(), Config{Profile: "chaos", Duration: time.Millisecond}); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestResultDetails(t *testing.T) {
	details := Result{TotalRequests: 3, Status429: 1}.Details()
	if details[0] != "total_requests=3" || details[4] != "status_429=1" {
		t.Fatalf("unexpected details: %v", details)
	}
}
