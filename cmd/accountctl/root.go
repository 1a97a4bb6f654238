package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vision-api/internal/config"
	"vision-api/internal/observability/logging"
	"vision-api/internal/store"
	"vision-api/internal/validation"
	"vision-api/pkg/db"
)

// NewRootCmd creates the root command of the account maintenance tool.
func NewRootCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "accountctl",
		Short: "Manage vision api accounts from the command line",
		Long: `accountctl works directly against the account database. It is meant
for bootstrapping the first administrator and for support tasks.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&dsn, "database-url", "", "database DSN (defaults to DATABASE_URL)")

	cmd.AddCommand(NewCreateAdminCmd(&dsn))
	cmd.AddCommand(NewSetRoleCmd(&dsn))
	cmd.AddCommand(NewListCmd(&dsn))

	return cmd
}

// env is what every subcommand needs: the store and the credential rules.
type env struct {
	store *store.Store
	rules validation.Rules
	close func()
}

func open(ctx context.Context, dsn string) (*env, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	if dsn != "" {
		cfg.DatabaseURL = dsn
	}

	slog.SetDefault(logging.NewLogger(logging.Config{
		ServiceName: "accountctl",
		Environment: cfg.Env,
		Level:       "warn",
		Output:      os.Stderr,
	}))

	gdb, err := db.Connect(ctx, db.Config{
		DSN:            cfg.DatabaseURL,
		LogSQL:         cfg.LogSQL,
		ConnectRetries: cfg.DBConnectRetries,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	st := store.New(gdb)
	if err := st.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &env{store: st, rules: cfg.Rules, close: func() { _ = sqlDB.Close() }}, nil
}
