package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/solution-configurator/api"
	"github.com/warp/solution-configurator/auth"
	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/costing"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, store, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer store.Close()

			// Open already migrates; running it again is harmless.
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("schema up to date", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

func newSeedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <scenario>",
		Short: "Reset the database and load a demo scenario",
		Long:  "Reset the database and load one of: cloud-migration, empty-offering, null-hours.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, store, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer store.Close()

			engine := costing.NewEngine(store, costing.WithLogger(log))
			offeringID, err := api.LoadScenario(cmd.Context(), store, engine, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), offeringID)
			return nil
		},
	}
}

func newCostCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cost <offering-id>",
		Short: "Print the cost summary of an offering as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, store, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer store.Close()

			engine := costing.NewEngine(store, costing.WithLogger(log))
			summary, err := engine.AggregateOfferingCost(cmd.Context(), catalog.OfferingID(args[0]))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.ToCostSummaryDTO(summary))
		},
	}
}

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		subject   string
		name      string
		admin     bool
		architect bool
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured (set CONFIGURATOR_JWT_SECRET)")
			}
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}

			id := auth.Identity{
				Subject: subject,
				Name:    name,
				Roles: auth.Roles{
					IsAdmin:             admin,
					IsSolutionArchitect: architect,
					HasCatalogAccess:    true,
				},
			}
			token, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "dev", "token subject (user id)")
	cmd.Flags().StringVar(&name, "name", "Developer", "display name")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.Flags().BoolVar(&architect, "architect", true, "grant the solution architect role")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}
