package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gounc/adapters/memory"
	"gounc/adapters/postgres"
	"gounc/internal/config"
	"gounc/internal/logging"
	"gounc/ports"
)

// app carries what every subcommand shares
type app struct {
	envFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "gounc",
		Short:         "Global uncertainty and sensitivity analysis for risk models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				logging.Sync(a.logger)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env", ".env", "Environment file loaded before reading GOUNC_* variables")

	rootCmd.AddCommand(
		newRunCmd(a),
		newRunsCmd(a),
		newReportCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
		newModelsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openDB connects to the configured Postgres database
func (a *app) openDB(ctx context.Context) (*sqlx.DB, error) {
	if a.cfg.Database.URL == "" {
		return nil, fmt.Errorf("GOUNC_DATABASE_URL is not set")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	return db, nil
}

// openStore returns the Postgres repository when a database is configured
// and an in-memory store otherwise. The returned close func is never nil.
func (a *app) openStore(ctx context.Context) (ports.Repository, func(), error) {
	if a.cfg.Database.URL == "" {
		a.logger.Info("no database configured, runs are kept in memory")
		return memory.NewRunStore(), func() {}, nil
	}
	db, err := a.openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	return postgresStore(db), func() { db.Close() }, nil
}

func postgresStore(db *sqlx.DB) ports.Repository {
	return postgres.NewRunRepository(db)
}
