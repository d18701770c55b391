package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/persistence"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/service"
)

var (
	// Global flags
	dsn           string
	migrationsDir string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "backofficectl",
	Short: "Operator tooling for the backoffice service",
	Long: `backofficectl runs maintenance tasks against the backoffice Postgres database.

Commands:
  migrate        apply SQL migrations
  create-owner   bootstrap the first owner account
  users          list accounts
  export-deals   write the deal pipeline as CSV`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Postgres DSN (defaults to POSTGRES_DSN)")
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations-dir", "", "Directory of .sql migrations (defaults to POSTGRES_MIGRATIONS_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// backend is an opened database plus the services built over it.
type backend struct {
	cfg      *config.Config
	logger   *zap.Logger
	pg       *persistence.Postgres
	recorder *audit.Recorder
	services *service.Registry
	repos    repository.Set
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	if migrationsDir != "" {
		cfg.Postgres.MigrationsDir = migrationsDir
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("a Postgres DSN is required (--dsn or POSTGRES_DSN)")
	}
	if verbose {
		cfg.Logger.Level = "debug"
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	repos := repository.NewPostgresSet(pg.PoolHandle())
	recorder := audit.NewRecorder(repos.Audit, logger, nil, cfg.Audit.QueueSize)
	recorder.Start()

	return &backend{
		cfg:      cfg,
		logger:   logger,
		pg:       pg,
		recorder: recorder,
		repos:    repos,
		services: service.NewRegistry(service.RegistryConfig{
			Repos:        repos,
			Recorder:     recorder,
			TokenManager: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
			Logger:       logger,
			BcryptCost:   cfg.Auth.BcryptCost,
		}),
	}, nil
}

// Close flushes pending audit entries before releasing the pool.
func (b *backend) Close() {
	b.recorder.Close()
	b.pg.Close()
	_ = b.logger.Sync()
}
