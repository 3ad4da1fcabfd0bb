package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"library-catalog/config"
	"library-catalog/library"
	"library-catalog/library/pgstore"
)

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	output string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "library",
		Short: "Library catalog with borrowing, returns and late fees",
		Long: `library manages a small book catalog: copies, patron loans,
returns and overdue fees. It stores data in SQLite by default or PostgreSQL
when LIBRARY_DRIVER=postgres, and can serve the same operations over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if err := validOutput(a.output); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = config.SetupLogger(cfg, os.Stderr)
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", outputText, "Output format: text, json or yaml")

	cmd.AddCommand(
		newAddBookCmd(a),
		newListCmd(a),
		newSearchCmd(a),
		newBorrowCmd(a),
		newReturnCmd(a),
		newFeeCmd(a),
		newStatusCmd(a),
		newSeedCmd(a),
		newMigrateCmd(a),
		newServeCmd(a),
		newShellCmd(a),
	)

	return cmd
}

// open connects to the configured backend and wires the manager.
func (a *app) open(ctx context.Context) (*library.LibraryManager, error) {
	policy, err := config.LoadPolicy(a.cfg)
	if err != nil {
		return nil, err
	}
	opts := []library.Option{
		library.WithLogger(a.logger),
		library.WithPolicy(policy),
		library.WithBookCache(a.cfg.BookCacheSize, a.cfg.BookCacheTTL),
	}

	switch a.cfg.Driver {
	case config.DriverPostgres:
		if err := pgstore.Migrate(a.cfg.PGDSN, a.logger); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, a.cfg.PGDSN, int32(a.cfg.PGMaxConns))
		if err != nil {
			return nil, err
		}
		return library.NewManager(pgstore.New(pool), opts...), nil
	default:
		mgr, err := library.NewLibraryManager(a.cfg.DBPath, opts...)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", a.cfg.DBPath, err)
		}
		return mgr, nil
	}
}

// withManager opens the backend, runs fn and closes the backend.
func (a *app) withManager(ctx context.Context, fn func(*library.LibraryManager) error) error {
	mgr, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()
	return fn(mgr)
}
