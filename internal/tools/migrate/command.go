package migrate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Elmeric/cycliti/internal/config"
	"github.com/Elmeric/cycliti/internal/database"
	"github.com/Elmeric/cycliti/internal/tools/common"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newCommand(opts, "up", "Apply schema migrations", up),
		newCommand(opts, "status", "Report reachability and pending tables", status),
		newCommand(opts, "plan", "Show migration plan (dry-run)", plan),
	)
	return cmd
}

type action func(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error)

func newCommand(opts *options, name, short string, act action) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := common.Run("migrate", name, opts.ci, opts.timeout, func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()
				return act(ctx, cfg, db)
			})
			if opts.ci {
				common.PrintCIResult("migrate "+name, details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func up(_ context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	pending, err := database.PendingTables(db)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return []string{
		"schema migration applied",
		"created tables: " + listOrNone(pending),
		"driver: " + cfg.DatabaseDriver,
	}, nil
}

func status(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	pending, err := database.PendingTables(db)
	if err != nil {
		return nil, err
	}
	state := "up to date"
	if len(pending) > 0 {
		state = "pending"
	}
	return []string{"database reachable", "driver: " + cfg.DatabaseDriver, "migrations: " + state}, nil
}

func plan(ctx context.Context, _ *config.Config, db *gorm.DB) ([]string, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	pending, err := database.PendingTables(db)
	if err != nil {
		return nil, err
	}
	return []string{
		"would apply AutoMigrate for every domain model",
		"would create tables: " + listOrNone(pending),
		"no mutation executed in plan mode",
	}, nil
}

func listOrNone(tables []string) string {
	if len(tables) == 0 {
		return "none"
	}
	return strings.Join(tables, ", ")
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
