package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"notary/internal/config"
	"notary/internal/logger"
	"notary/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the SQL tables for invoices and deeds",
	Long: `Run the schema migration for the sqlite and postgres stores. Firestore
and the in-memory store need no migration.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("migrate")

	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		var err error
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	if cfg.StoreDriver != config.DriverSQLite && cfg.StoreDriver != config.DriverPostgres {
		fmt.Printf("Store driver %s needs no migration\n", cfg.StoreDriver)
		return nil
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	db, err := store.OpenGorm(ctx, cfg)
	if err != nil {
		return err
	}
	s := store.NewGormStore(db)
	defer s.Close()

	if err := s.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info().Str("driver", cfg.StoreDriver).Msg("Migration completed")
	fmt.Println("Migration completed")
	return nil
}
