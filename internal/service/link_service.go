package service

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/repository"
)

// RequiredStravaScopes must all be granted for a link to be stored.
var RequiredStravaScopes = []string{"read", "read_all", "profile:read_all", "activity:read", "activity:read_all"}

type LinkService struct {
	repo     repository.IdentityRepository
	provider ThirdPartyProvider
	required []string
	logger   *slog.Logger
}

func NewLinkService(repo repository.IdentityRepository, provider ThirdPartyProvider, logger *slog.Logger) *LinkService {
	return &LinkService{repo: repo, provider: provider, required: RequiredStravaScopes, logger: logger}
}

// Link exchanges code and stores the resulting tokens for userID,
// replacing any previous link.
func (s *LinkService) Link(ctx context.Context, userID uint, code, grantedScopes string) (*domain.User, error) {
	if !hasScopes(grantedScopes, s.required) {
		observability.RecordThirdPartyLinkError(ctx, "insufficient_scope")
		return nil, ErrInsufficientScope
	}

	start := time.Now()
	tokens, err := s.provider.Exchange(ctx, code)
	observability.RecordThirdPartyLinkDuration(ctx, linkStatus(err), time.Since(start))
	if err != nil {
		reason := classifyLinkError(err)
		observability.RecordThirdPartyLinkError(ctx, reason)
		s.logger.WarnContext(ctx, "strava token exchange failed", "user_id", userID, "reason", reason)
		var statusErr *UpstreamStatusError
		if errors.As(err, &statusErr) {
			return nil, ErrUpstreamUnavailable
		}
		return nil, errors.Join(ErrInternal, err)
	}

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			observability.RecordThirdPartyLinkError(ctx, "unknown_user")
			return nil, ErrForbidden
		}
		return nil, storageFailure("link strava", err)
	}
	if !user.IsActive {
		observability.RecordThirdPartyLinkError(ctx, "inactive_user")
		return nil, ErrForbidden
	}

	user, err = s.repo.ReplaceThirdPartyLink(ctx, user.ID, domain.ThirdPartyLink{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	})
	if err != nil {
		return nil, storageFailure("link strava", err)
	}
	return user, nil
}

func hasScopes(granted string, required []string) bool {
	have := make(map[string]struct{})
	for _, s := range strings.FieldsFunc(granted, func(r rune) bool { return r == ',' || r == ' ' }) {
		have[s] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}

func linkStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func classifyLinkError(err error) string {
	if err == nil {
		return "none"
	}
	var statusErr *UpstreamStatusError
	switch {
	case errors.As(err, &statusErr):
		return "upstream_status"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if strings.Contains(strings.ToLower(err.Error()), "oauth2") {
		return "invalid_response"
	}
	return "other"
}
