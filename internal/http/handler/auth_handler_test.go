package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/http/middleware"
	"github.com/Elmeric/cycliti/internal/service"
)

type authErrorEnvelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stubAuthService struct {
	loginFn   func(ctx context.Context, email, password, ip string) (*service.AccessToken, error)
	currentFn func(ctx context.Context, email string) (*domain.User, error)
	parseFn   func(token string) (string, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password, ip string) (*service.AccessToken, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, email, password, ip)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) CurrentUser(ctx context.Context, email string) (*domain.User, error) {
	if s.currentFn != nil {
		return s.currentFn(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) ParseSubject(token string) (string, error) {
	if s.parseFn != nil {
		return s.parseFn(token)
	}
	return "", errors.New("not implemented")
}

func decodeErrorEnvelope(t *testing.T, rr *httptest.ResponseRecorder) authErrorEnvelope {
	t.Helper()
	var env authErrorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rr.Body.String())
	}
	return env
}

func TestAccessTokenAcceptsFormAndJSON(t *testing.T) {
	var gotEmail, gotPassword, gotIP string
	svc := &stubAuthService{loginFn: func(_ context.Context, email, password, ip string) (*service.AccessToken, error) {
		gotEmail, gotPassword, gotIP = email, password, ip
		return &service.AccessToken{AccessToken: "jwt", TokenType: "bearer"}, nil
	}}
	h := NewAuthHandler(svc)

	form := url.Values{"username": {"rider@example.com"}, "password": {"password123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login/access-token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.9:5555"
	rr := httptest.NewRecorder()
	h.AccessToken(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if gotEmail != "rider@example.com" || gotPassword != "password123" || gotIP != "203.0.113.9" {
		t.Fatalf("unexpected login args %q %q %q", gotEmail, gotPassword, gotIP)
	}
	var env struct {
		Success bool                `json:"success"`
		Data    service.AccessToken `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Data.AccessToken != "jwt" || env.Data.TokenType != "bearer" {
		t.Fatalf("unexpected token response %s", rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/login/access-token", strings.NewReader(`{"email":"json@example.com","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr = httptest.NewRecorder()
	h.AccessToken(rr, req)
	if rr.Code != http.StatusOK || gotEmail != "json@example.com" {
		t.Fatalf("json login: status=%d email=%q", rr.Code, gotEmail)
	}
}

func TestAccessTokenErrors(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		err        error
		status     int
		code       string
		message    string
		retryAfter string
	}{
		{"missing password", "username=rider@example.com", nil, http.StatusBadRequest, "BAD_REQUEST", "", ""},
		{"invalid credentials", "username=rider@example.com&password=nope", service.ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS", "Login failed; Invalid user ID or password.", ""},
		{"throttled", "username=rider@example.com&password=nope", &service.ThrottledError{RetryAfter: 1500 * time.Millisecond}, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "", "2"},
		{"storage", "username=rider@example.com&password=nope", service.ErrStorage, http.StatusInternalServerError, "INTERNAL", "An error occur, please retry.", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuthService{loginFn: func(context.Context, string, string, string) (*service.AccessToken, error) {
				return nil, tc.err
			}})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/login/access-token", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rr := httptest.NewRecorder()
			h.AccessToken(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d body=%s", tc.status, rr.Code, rr.Body.String())
			}
			env := decodeErrorEnvelope(t, rr)
			if env.Error.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, env.Error.Code)
			}
			if tc.message != "" && env.Error.Message != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, env.Error.Message)
			}
			if got := rr.Header().Get("Retry-After"); got != tc.retryAfter {
				t.Fatalf("expected Retry-After %q, got %q", tc.retryAfter, got)
			}
		})
	}
}

func TestTestTokenReturnsCurrentUser(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})
	user := &domain.User{ID: 3, Email: "rider@example.com", Username: "rider", HashedPassword: "$argon2id$secret", IsActive: true}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/login/test-token", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	rr := httptest.NewRecorder()
	h.TestToken(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "argon2id") {
		t.Fatal("password hash leaked in response")
	}
	if !strings.Contains(rr.Body.String(), `"email":"rider@example.com"`) {
		t.Fatalf("expected user email in body, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.TestToken(rr, httptest.NewRequest(http.MethodPost, "/api/v1/login/test-token", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rr.Code)
	}
}
