package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Elmeric/cycliti/internal/config"
	"github.com/Elmeric/cycliti/internal/database"
	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/repository"
	"github.com/Elmeric/cycliti/internal/security"
	"github.com/Elmeric/cycliti/internal/tools/common"
)

type options struct {
	envFile string
	email   string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Superuser seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.email, "email", "", "override FIRST_USER_EMAIL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Create or promote the first superuser",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := common.Run("seed", "apply", opts.ci, opts.timeout, func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()
				return apply(ctx, db, cfg, opts.email)
			})
			return finish(opts, "seed apply", details, err)
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := common.Run("seed", "dry-run", opts.ci, opts.timeout, func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()
				return dryRun(ctx, db, cfg, opts.email)
			})
			return finish(opts, "seed dry-run", details, err)
		},
	}
}

func finish(opts *options, title string, details []string, err error) error {
	if opts.ci {
		common.PrintCIResult(title, details, err)
	}
	if err != nil {
		os.Exit(3)
	}
	return nil
}

func superuserSeed(cfg *config.Config, override string) database.SuperuserSeed {
	email := cfg.FirstUserEmail
	if override != "" {
		email = strings.TrimSpace(strings.ToLower(override))
	}
	return database.SuperuserSeed{Email: email, Username: cfg.FirstUserUsername, Password: cfg.FirstUserPassword}
}

func apply(ctx context.Context, db *gorm.DB, cfg *config.Config, override string) ([]string, error) {
	seed := superuserSeed(cfg, override)
	if seed.Email != "" && seed.Password == "" {
		return nil, errors.New("FIRST_USER_PASSWORD is required to seed a superuser")
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	hasher := security.NewPasswordHasher(security.PasswordParams{
		Time:      cfg.Argon2Time,
		MemoryKiB: cfg.Argon2MemoryKiB,
		Threads:   cfg.Argon2Threads,
	})
	report, err := database.Seed(ctx, repository.NewIdentityRepository(db), seed, hasher.Hash)
	if err != nil {
		return nil, err
	}
	switch {
	case report.Noop && report.Email == "":
		return []string{"FIRST_USER_EMAIL is empty; nothing to seed"}, nil
	case report.Noop:
		return []string{"superuser already present: " + report.Email}, nil
	case report.Created:
		return []string{"created superuser: " + report.Email, "username: " + database.SeedUsername(seed)}, nil
	default:
		return []string{"promoted existing user to active superuser: " + report.Email}, nil
	}
}

func dryRun(ctx context.Context, db *gorm.DB, cfg *config.Config, override string) ([]string, error) {
	seed := superuserSeed(cfg, override)
	if seed.Email == "" {
		return []string{"FIRST_USER_EMAIL is empty; nothing would be seeded"}, nil
	}
	if !db.Migrator().HasTable(&domain.User{}) {
		return []string{"users table missing; apply would migrate first", fmt.Sprintf("would create superuser %s (%s)", seed.Email, database.SeedUsername(seed))}, nil
	}
	existing, err := repository.NewIdentityRepository(db).GetByEmail(ctx, seed.Email)
	switch {
	case repository.IsNotFound(err):
		return []string{fmt.Sprintf("would create superuser %s (%s)", seed.Email, database.SeedUsername(seed))}, nil
	case err != nil:
		return nil, err
	case existing.IsActive && existing.IsSuperuser && existing.Activation == nil:
		return []string{"superuser already present: " + seed.Email}, nil
	default:
		return []string{"would promote existing user to active superuser: " + seed.Email}, nil
	}
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
