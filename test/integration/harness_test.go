package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Elmeric/cycliti/internal/config"
	"github.com/Elmeric/cycliti/internal/database"
	"github.com/Elmeric/cycliti/internal/http/handler"
	"github.com/Elmeric/cycliti/internal/http/router"
	"github.com/Elmeric/cycliti/internal/repository"
	"github.com/Elmeric/cycliti/internal/security"
	"github.com/Elmeric/cycliti/internal/service"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password-1"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type msgData struct {
	Msg string `json:"msg"`
}

type userData struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	IsActive     bool   `json:"is_active"`
	IsSuperuser  bool   `json:"is_superuser"`
	PhotoPath    string `json:"photo_path"`
	PhotoURL     string `json:"photo_url"`
	StravaLinked bool   `json:"strava_linked"`
}

// captureNotifier records the last nonce mailed to each address.
type captureNotifier struct {
	mu          sync.Mutex
	activations map[string]string
	resets      map[string]string
	resetCount  map[string]int
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{
		activations: map[string]string{},
		resets:      map[string]string{},
		resetCount:  map[string]int{},
	}
}

func (n *captureNotifier) SendActivation(_ context.Context, notification service.ActivationNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activations[notification.Email] = notification.Nonce
	return nil
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, notification service.PasswordResetNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets[notification.Email] = notification.Nonce
	n.resetCount[notification.Email]++
	return nil
}

func (n *captureNotifier) activationNonce(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.activations[email]
}

func (n *captureNotifier) resetNonce(email string) (string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resets[email], n.resetCount[email]
}

type testServerOptions struct {
	cfgOverride    func(cfg *config.Config)
	photos         service.PhotoStorage
	stravaTokenURL string
}

type testServer struct {
	baseURL    string
	client     *http.Client
	db         *gorm.DB
	notifier   *captureNotifier
	dispatcher *service.Dispatcher
}

func newTestServer(t *testing.T, opts testServerOptions) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		ProjectName:              "Cycliti",
		APIV1Prefix:              "/api/v1",
		FrontendHost:             "http://localhost:5173/",
		SecretKey:                "integration-secret-key-0123456789",
		AccessTokenTTL:           time.Hour,
		ActivationWindowHours:    1,
		PasswordResetWindowHours: 1,
		PasswordRecoveryMaxTries: 3,
		Argon2Time:               1,
		Argon2MemoryKiB:          8 * 1024,
		Argon2Threads:            1,
		FirstUserEmail:           adminEmail,
		FirstUserPassword:        adminPassword,
		StravaClientID:           "client-id",
		StravaClientSecret:       "client-secret",
		StravaTokenURL:           opts.stravaTokenURL,
		StravaHTTPTimeout:        2 * time.Second,
		UserListCacheTTL:         time.Minute,

		AuthAbuseProtectionEnabled: true,
		AuthAbuseFreeAttempts:      3,
		AuthAbuseBaseDelay:         2 * time.Second,
		AuthAbuseMultiplier:        2,
		AuthAbuseMaxDelay:          5 * time.Minute,
		AuthAbuseResetWindow:       30 * time.Minute,
	}
	if opts.cfgOverride != nil {
		opts.cfgOverride(cfg)
	}

	hasher := security.NewPasswordHasher(security.PasswordParams{
		Time:      cfg.Argon2Time,
		MemoryKiB: cfg.Argon2MemoryKiB,
		Threads:   cfg.Argon2Threads,
	})
	if _, err := database.Seed(context.Background(), repository.NewIdentityRepository(db), database.SuperuserSeed{Email: cfg.FirstUserEmail, Password: cfg.FirstUserPassword}, hasher.Hash); err != nil {
		t.Fatalf("seed: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewIdentityRepository(db)
	notifier := newCaptureNotifier()
	dispatcher := service.NewDispatcher(log, time.Second)
	throttle := service.NewMemoryCredentialThrottle(service.ThrottlePolicy{
		FreeAttempts: cfg.AuthAbuseFreeAttempts,
		BaseDelay:    cfg.AuthAbuseBaseDelay,
		Multiplier:   cfg.AuthAbuseMultiplier,
		MaxDelay:     cfg.AuthAbuseMaxDelay,
		ResetWindow:  cfg.AuthAbuseResetWindow,
	})
	photos := opts.photos
	if photos == nil {
		photos = service.DisabledPhotoStorage{}
	}

	resets := service.NewPasswordResetService(cfg, repo, hasher, notifier, dispatcher, log)
	activations := service.NewActivationService(cfg, repo, hasher, notifier, dispatcher, log)
	auth := service.NewAuthService(cfg, repo, hasher, security.NewJWTManager(cfg.SecretKey), resets, throttle, log)
	users := service.NewUserService(repo, photos, service.NewInMemoryListCacheStore(), cfg.UserListCacheTTL, log)
	provider := service.NewStravaProvider(service.StravaSettings{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		TokenURL:     cfg.StravaTokenURL,
		HTTPTimeout:  cfg.StravaHTTPTimeout,
	})
	links := service.NewLinkService(repo, provider, log)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:    handler.NewAuthHandler(auth),
		AccountHandler: handler.NewAccountHandler(activations, resets),
		UserHandler:    handler.NewUserHandler(users),
		StravaHandler:  handler.NewStravaHandler(links, cfg.FrontendHost),
		CurrentUser:    auth,
		APIPrefix:      cfg.APIV1Prefix,
		CORSOrigins:    []string{"http://localhost:5173"},
	})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		dispatcher.Wait()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testServer{baseURL: srv.URL, client: client, db: db, notifier: notifier, dispatcher: dispatcher}
}

func (s *testServer) url(path string) string {
	return s.baseURL + "/api/v1" + path
}

func (s *testServer) doJSON(t *testing.T, method, path string, body any, token string) (*http.Response, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.url(path), reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (*http.Response, apiEnvelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env apiEnvelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope: %v body=%s", err, raw)
		}
	}
	return resp, env
}

// login posts the OAuth2 password form and returns the status and the token.
func (s *testServer) login(t *testing.T, email, password string) (*http.Response, apiEnvelope, string) {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req, err := http.NewRequest(http.MethodPost, s.url("/login/access-token"), strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, env := s.send(t, req, "")
	var token service.AccessToken
	if env.Success {
		decodeData(t, env, &token)
	}
	return resp, env, token.AccessToken
}

func (s *testServer) mustLogin(t *testing.T, email, password string) string {
	t.Helper()
	resp, env, token := s.login(t, email, password)
	if resp.StatusCode != http.StatusOK || token == "" {
		t.Fatalf("login %s failed: status=%d env=%+v", email, resp.StatusCode, env.Error)
	}
	return token
}

// registerAndActivate creates an active account through the public flow.
func (s *testServer) registerAndActivate(t *testing.T, email, username, password string) {
	t.Helper()
	resp, env := s.doJSON(t, http.MethodPost, "/users", map[string]any{
		"email":    email,
		"username": username,
		"password": password,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status=%d env=%+v", email, resp.StatusCode, env.Error)
	}
	s.dispatcher.Wait()
	resp, env = s.doJSON(t, http.MethodPost, "/users/activate-account", map[string]string{
		"email": email,
		"nonce": s.notifier.activationNonce(email),
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate %s: status=%d env=%+v", email, resp.StatusCode, env.Error)
	}
}

func decodeData(t *testing.T, env apiEnvelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v raw=%s", err, env.Data)
	}
}

func errorCode(env apiEnvelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}
