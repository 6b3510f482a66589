package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/repository"

	"github.com/google/uuid"
)

type SuperuserSeed struct {
	Email    string
	Username string
	Password string
}

type SeedReport struct {
	Email   string `json:"email,omitempty"`
	Created bool   `json:"created"`
	Promote bool   `json:"promoted"`
	Noop    bool   `json:"noop"`
}

// Seed ensures the first superuser exists, active and flagged superuser.
// An empty email is a noop. An existing user keeps its password; promoting
// it also drops a pending activation.
func Seed(ctx context.Context, repo repository.IdentityRepository, seed SuperuserSeed, hash func(string) (string, error)) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "seed", time.Since(start))
	}()

	email := strings.TrimSpace(strings.ToLower(seed.Email))
	report := &SeedReport{Email: email}
	if email == "" {
		report.Noop = true
		observability.RecordDatabaseStartupEvent(ctx, "seed", "noop")
		return report, nil
	}

	existing, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsActive && existing.IsSuperuser && existing.Activation == nil {
			report.Noop = true
			observability.RecordDatabaseStartupEvent(ctx, "seed", "noop")
			return report, nil
		}
		if _, err := repo.PromoteSuperuser(ctx, existing.ID); err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, err
		}
		report.Promote = true
	case repository.IsNotFound(err):
		hashed, err := hash(seed.Password)
		if err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, fmt.Errorf("hash superuser password: %w", err)
		}
		if _, err := repo.Create(ctx, repository.UserCreate{
			UID:            strings.ReplaceAll(uuid.NewString(), "-", ""),
			Email:          email,
			Username:       SeedUsername(seed),
			HashedPassword: hashed,
			IsActive:       true,
			IsSuperuser:    true,
		}); err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, err
		}
		report.Created = true
	default:
		observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
		return nil, err
	}

	observability.RecordDatabaseStartupEvent(ctx, "seed", "success")
	return report, nil
}

// SeedUsername falls back to the email local part, clipped to 16 runes.
func SeedUsername(seed SuperuserSeed) string {
	username := strings.TrimSpace(seed.Username)
	if username == "" {
		username, _, _ = strings.Cut(strings.TrimSpace(strings.ToLower(seed.Email)), "@")
	}
	if runes := []rune(username); len(runes) > 16 {
		username = string(runes[:16])
	}
	return username
}
