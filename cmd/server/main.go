/*
main.go - Application entry point

PURPOSE:
  The "configurator" command. Serves the costing API and offers the
  operational subcommands around it.

COMMANDS:
  serve            Start the HTTP server (default port 8080)
  migrate          Create or upgrade the database schema
  seed <scenario>  Reset the database and load a demo scenario
  cost <offering>  Print the cost summary of an offering as JSON
  token            Mint a development bearer token

GLOBAL FLAGS:
  --config   YAML configuration file
  --db       Database DSN (SQLite file path or PostgreSQL URL)
  --driver   sqlite | postgres
  --port     HTTP server port

  Flags win over the environment, which wins over the file.

AUTHENTICATION:
  On by default; every command needs CONFIGURATOR_JWT_SECRET (16+ bytes).
  CONFIGURATOR_AUTH_ENABLED=false turns it off for local development, in
  which case every request runs as an anonymous admin.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Flush traces and close the database
  4. Exit

EXAMPLES:
  # Local SQLite database
  CONFIGURATOR_JWT_SECRET=... configurator serve --db=./data/configurator.db

  # PostgreSQL
  configurator serve --driver=postgres --db=postgres://localhost/configurator

  # Demo data, then its numbers, without auth
  export CONFIGURATOR_AUTH_ENABLED=false
  configurator seed cloud-migration
  configurator cost 3f0c...

SEE ALSO:
  - config/config.go: Configuration layers
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/solution-configurator/config"
	"github.com/warp/solution-configurator/logger"
	"github.com/warp/solution-configurator/store/sqlstore"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dsn        string
	driver     string
	port       int
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "configurator",
		Short:         "Offering cost and effort service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.dsn, "db", "", "database DSN (SQLite path or PostgreSQL URL)")
	flags.StringVar(&opts.driver, "driver", "", "database driver: sqlite or postgres")
	flags.IntVar(&opts.port, "port", 0, "HTTP server port")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newCostCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// loadConfig layers the command-line flags over config.Load.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.DSN = opts.dsn
	}
	if flags.Changed("driver") {
		cfg.Database.Driver = opts.driver
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup loads the configuration, builds the logger and opens the store.
// The caller closes the store and syncs the logger.
func setup(cmd *cobra.Command, opts *globalOptions) (config.Config, *logger.Logger, *sqlstore.Store, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return cfg, nil, nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	st, err := sqlstore.Open(cmd.Context(), cfg.Database, sqlstore.WithLogger(log))
	if err != nil {
		log.Sync()
		return cfg, nil, nil, fmt.Errorf("opening %s database: %w", cfg.Database.Driver, err)
	}
	return cfg, log, st, nil
}
