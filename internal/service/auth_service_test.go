package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAuthServiceAuthenticate(t *testing.T) {
	fx := newFlowFixture()
	user := fx.seedActiveUser("rider@example.com", "rider", "password123")
	ctx := context.Background()

	got, err := fx.auth.Authenticate(ctx, " Rider@Example.com", "password123")
	if err != nil || got == nil || got.ID != user.ID {
		t.Fatalf("expected user, got %+v err=%v", got, err)
	}

	got, err = fx.auth.Authenticate(ctx, "rider@example.com", "wrong-password")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) on mismatch, got %+v err=%v", got, err)
	}
	if n := fx.state.user(user.ID).FailedLogins; n != 1 {
		t.Fatalf("expected failed_logins=1, got %d", n)
	}

	got, err = fx.auth.Authenticate(ctx, "ghost@example.com", "password123")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) for unknown user, got %+v err=%v", got, err)
	}

	fx.state.getErr = errors.New("db down")
	if _, err := fx.auth.Authenticate(ctx, "rider@example.com", "password123"); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	t.Run("issues bearer token for active user", func(t *testing.T) {
		fx := newFlowFixture()
		user := fx.seedActiveUser("rider@example.com", "rider", "password123")
		_ = fx.state.RecordFailedLogin(context.Background(), user.ID)

		token, err := fx.auth.Login(context.Background(), "rider@example.com", "password123", "10.0.0.1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if token.TokenType != "bearer" || token.AccessToken == "" {
			t.Fatalf("unexpected token %+v", token)
		}
		sub, err := fx.auth.ParseSubject(token.AccessToken)
		if err != nil || sub != "rider@example.com" {
			t.Fatalf("expected subject email, got %q err=%v", sub, err)
		}
		if ttl := time.Until(token.ExpiresAt); ttl < 11519*time.Minute || ttl > 11521*time.Minute {
			t.Fatalf("expected 8 day ttl, got %s", ttl)
		}
		if n := fx.state.user(user.ID).FailedLogins; n != 0 {
			t.Fatalf("expected failed_logins reset, got %d", n)
		}
	})

	t.Run("failures share one error", func(t *testing.T) {
		fx := newFlowFixture()
		fx.seedActiveUser("rider@example.com", "rider", "password123")
		inactive := fx.seedActiveUser("sleepy@example.com", "sleepy", "password123")
		inactive.IsActive = false
		if _, err := fx.state.Update(context.Background(), inactive); err != nil {
			t.Fatalf("deactivate: %v", err)
		}

		cases := map[string][2]string{
			"wrong password": {"rider@example.com", "nope-nope"},
			"unknown user":   {"ghost@example.com", "password123"},
			"inactive user":  {"sleepy@example.com", "password123"},
		}
		for name, c := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := fx.auth.Login(context.Background(), c[0], c[1], "10.0.0."+name[:1])
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Fatalf("expected ErrInvalidCredentials, got %v", err)
				}
			})
		}
	})

	t.Run("cooldown after repeated failures", func(t *testing.T) {
		fx := newFlowFixture()
		fx.seedActiveUser("rider@example.com", "rider", "password123")
		ctx := context.Background()

		for i := 0; i < 4; i++ {
			if _, err := fx.auth.Login(ctx, "rider@example.com", "nope-nope", "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
			}
		}
		_, err := fx.auth.Login(ctx, "rider@example.com", "password123", "10.0.0.1")
		var throttled *ThrottledError
		if !errors.As(err, &throttled) || !errors.Is(err, ErrThrottled) {
			t.Fatalf("expected ThrottledError, got %v", err)
		}
		if throttled.RetryAfter != time.Second {
			t.Fatalf("expected 1s cooldown, got %s", throttled.RetryAfter)
		}

		fx.advance(2 * time.Second)
		if _, err := fx.auth.Login(ctx, "rider@example.com", "password123", "10.0.0.1"); err != nil {
			t.Fatalf("expected login after cooldown, got %v", err)
		}
		if d, _ := fx.throttle.Cooldown(ctx, ThrottleScopeLogin, "rider@example.com", "10.0.0.1"); d != 0 {
			t.Fatalf("expected throttle cleared, got %s", d)
		}
	})
}

func TestAuthServiceCurrentUser(t *testing.T) {
	fx := newFlowFixture()
	active := fx.seedActiveUser("rider@example.com", "rider", "password123")
	inactive := fx.seedActiveUser("sleepy@example.com", "sleepy", "password123")
	inactive.IsActive = false
	_, _ = fx.state.Update(context.Background(), inactive)

	got, err := fx.auth.CurrentUser(context.Background(), "rider@example.com")
	if err != nil || got.ID != active.ID {
		t.Fatalf("expected active user, got %+v err=%v", got, err)
	}
	if _, err := fx.auth.CurrentUser(context.Background(), "sleepy@example.com"); !errors.Is(err, ErrInactiveUser) {
		t.Fatalf("expected ErrInactiveUser, got %v", err)
	}
	if _, err := fx.auth.CurrentUser(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := fx.auth.ParseSubject("not-a-token"); err == nil {
		t.Fatal("expected invalid token error")
	}
}
