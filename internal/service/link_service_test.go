package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
)

const fullStravaScope = "read,read_all,profile:read_all,activity:read,activity:read_all"

func newLinkFixture(t *testing.T) (*flowFixture, *MockThirdPartyProvider, *LinkService) {
	t.Helper()
	fx := newFlowFixture()
	ctrl := gomock.NewController(t)
	repo := newIdentityRepoMock(gomock.NewController(tNop{}), fx.state)
	provider := NewMockThirdPartyProvider(ctrl)
	return fx, provider, NewLinkService(repo, provider, discardLogger())
}

func TestLinkServiceLink(t *testing.T) {
	t.Run("stores tokens", func(t *testing.T) {
		fx, provider, svc := newLinkFixture(t)
		user := fx.seedActiveUser("rider@example.com", "rider", "password123")
		provider.EXPECT().Exchange(gomock.Any(), "the-code").Return(&ThirdPartyTokens{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 1_700_021_600}, nil)

		got, err := svc.Link(context.Background(), user.ID, "the-code", fullStravaScope)
		if err != nil {
			t.Fatalf("link: %v", err)
		}
		link := got.ThirdPartyLink
		if link == nil || link.AccessToken != "at" || link.RefreshToken != "rt" || link.ExpiresAt != 1_700_021_600 {
			t.Fatalf("unexpected link %+v", link)
		}
	})

	t.Run("relink replaces previous tokens", func(t *testing.T) {
		fx, provider, svc := newLinkFixture(t)
		user := fx.seedActiveUser("rider@example.com", "rider", "password123")
		provider.EXPECT().Exchange(gomock.Any(), gomock.Any()).Return(&ThirdPartyTokens{AccessToken: "old"}, nil)
		provider.EXPECT().Exchange(gomock.Any(), gomock.Any()).Return(&ThirdPartyTokens{AccessToken: "new"}, nil)

		for range 2 {
			if _, err := svc.Link(context.Background(), user.ID, "code", fullStravaScope+",activity:write"); err != nil {
				t.Fatalf("link: %v", err)
			}
		}
		if got := fx.state.user(user.ID).ThirdPartyLink.AccessToken; got != "new" {
			t.Fatalf("expected replaced token, got %q", got)
		}
	})

	t.Run("insufficient scope skips exchange", func(t *testing.T) {
		fx, _, svc := newLinkFixture(t)
		user := fx.seedActiveUser("rider@example.com", "rider", "password123")
		_, err := svc.Link(context.Background(), user.ID, "code", "read,activity:read")
		if !errors.Is(err, ErrInsufficientScope) {
			t.Fatalf("expected ErrInsufficientScope, got %v", err)
		}
		if fx.state.user(user.ID).StravaLinked() {
			t.Fatal("no link expected")
		}
	})

	t.Run("provider errors", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			want error
		}{
			{"non-2xx", &UpstreamStatusError{StatusCode: http.StatusBadRequest}, ErrUpstreamUnavailable},
			{"transport", fmt.Errorf("dial tcp: %w", context.DeadlineExceeded), ErrInternal},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				fx, provider, svc := newLinkFixture(t)
				user := fx.seedActiveUser("rider@example.com", "rider", "password123")
				provider.EXPECT().Exchange(gomock.Any(), gomock.Any()).Return(nil, tc.err)
				_, err := svc.Link(context.Background(), user.ID, "code", fullStravaScope)
				if !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})

	t.Run("unknown or inactive user", func(t *testing.T) {
		fx, provider, svc := newLinkFixture(t)
		inactive := fx.seedActiveUser("sleepy@example.com", "sleepy", "password123")
		inactive.IsActive = false
		_, _ = fx.state.Update(context.Background(), inactive)
		provider.EXPECT().Exchange(gomock.Any(), gomock.Any()).Times(2).Return(&ThirdPartyTokens{AccessToken: "at"}, nil)

		for _, id := range []uint{inactive.ID, 999} {
			if _, err := svc.Link(context.Background(), id, "code", fullStravaScope); !errors.Is(err, ErrForbidden) {
				t.Fatalf("user %d: expected ErrForbidden, got %v", id, err)
			}
		}
	})
}

func TestStravaProviderExchange(t *testing.T) {
	t.Run("posts form params and reads expires_at", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			for k, want := range map[string]string{
				"client_id":     "42",
				"client_secret": "s3cret",
				"code":          "the-code",
				"grant_type":    "authorization_code",
			} {
				if got := r.PostForm.Get(k); got != want {
					t.Errorf("form %s: expected %q, got %q", k, want, got)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token_type":"Bearer","access_token":"at","refresh_token":"rt","expires_at":1700021600,"expires_in":21600}`))
		}))
		defer srv.Close()

		p := NewStravaProvider(StravaSettings{ClientID: "42", ClientSecret: "s3cret", TokenURL: srv.URL, HTTPTimeout: time.Second})
		tokens, err := p.Exchange(context.Background(), "the-code")
		if err != nil {
			t.Fatalf("exchange: %v", err)
		}
		if tokens.AccessToken != "at" || tokens.RefreshToken != "rt" || tokens.ExpiresAt != 1700021600 {
			t.Fatalf("unexpected tokens %+v", tokens)
		}
	})

	t.Run("non-2xx becomes UpstreamStatusError without body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Bad Request","errors":[{"resource":"AuthorizationCode","code":"invalid"}]}`))
		}))
		defer srv.Close()

		p := NewStravaProvider(StravaSettings{ClientID: "42", ClientSecret: "s3cret", TokenURL: srv.URL})
		_, err := p.Exchange(context.Background(), "bad-code")
		var statusErr *UpstreamStatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected UpstreamStatusError 400, got %v", err)
		}
		if strings.Contains(err.Error(), "AuthorizationCode") {
			t.Fatalf("upstream body leaked: %v", err)
		}
	})
}

func TestClassifyLinkError(t *testing.T) {
	cases := map[string]error{
		"upstream_status":  &UpstreamStatusError{StatusCode: 500},
		"timeout":          context.DeadlineExceeded,
		"context_canceled": context.Canceled,
		"other":            errors.New("boom"),
	}
	for want, err := range cases {
		if got := classifyLinkError(err); got != want {
			t.Fatalf("classify(%v): expected %q, got %q", err, want, got)
		}
	}
}
