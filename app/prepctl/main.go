package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yoockh/prepwise/config"
	"github.com/yoockh/prepwise/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "prepctl",
		Short:        "Maintenance commands for the interview practice backend",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newSchemaCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	var skipMongo bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables, constraints and Mongo indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			l := logger.New(cfg.LogLevel)

			if err := config.InitPostgres(cfg.PostgresURI, l); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if err := config.Migrate(config.PostgresDB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			l.Info("postgres schema up to date")

			if skipMongo {
				return nil
			}
			if err := config.InitMongo(cfg.MongoURI); err != nil {
				return fmt.Errorf("mongo: %w", err)
			}
			if err := config.EnsureMongoIndexes(cfg.MongoDB); err != nil {
				return fmt.Errorf("mongo indexes: %w", err)
			}
			l.WithField("db", cfg.MongoDB).Info("mongo indexes up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMongo, "skip-mongo", false, "only migrate Postgres")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the Postgres DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.SchemaSQL)
			return err
		},
	}
}
