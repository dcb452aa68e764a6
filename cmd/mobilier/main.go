package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erazemk/mobilier/internal/config"
	"github.com/erazemk/mobilier/internal/db"
	"github.com/erazemk/mobilier/internal/logging"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "mobilier",
		Short:   "Street furniture census backend",
		Version: version,
		Long: `mobilier records street furniture surveyed by field agents and
validated by office agents. Run "mobilier serve" to start the API.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "YAML config file (default: ./mobilier.yaml if present)")
	pf.StringP("db", "d", "mobilier.sqlite3", "SQLite database path")
	pf.StringP("addr", "a", ":8080", "listen address")
	pf.StringP("log", "l", "", "log file path (default: stdout/stderr only)")
	pf.String("log-level", "info", "minimum log level: debug, info, warn, error")
	pf.Bool("color", false, "colorize console logs")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(nearbyCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mobilier", version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every command needs once flags are parsed.
type env struct {
	cfg *config.Config
	db  *sql.DB
}

// setup loads the configuration, installs the logger and opens the migrated
// database. The returned cleanup closes both.
func setup(cmd *cobra.Command) (*env, func(), error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	closeLog, err := logging.Setup(cfg.Logging())
	if err != nil {
		return nil, nil, err
	}

	database, err := db.Open(cfg.DB)
	if err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		closeLog()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}
	slog.Debug("database ready", "path", cfg.DB)

	cleanup := func() {
		database.Close()
		closeLog()
	}
	return &env{cfg: cfg, db: database}, cleanup, nil
}
