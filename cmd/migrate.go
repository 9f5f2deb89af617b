package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/globizora/api-service/config"
	"github.com/globizora/api-service/database"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		switch cfg.StoreDriver {
		case config.DriverPostgres:
			return runMigration(cfg, func(m *migrate.Migrate) error { return m.Up() })
		case config.DriverMongo:
			return ensureMongoIndexes(cmd.Context(), cfg)
		default:
			log.Printf("Nothing to migrate for store driver %q", cfg.StoreDriver)
			return nil
		}
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.StoreDriver != config.DriverPostgres {
			return fmt.Errorf("migrate down is only supported for the postgres store")
		}
		return runMigration(cfg, func(m *migrate.Migrate) error { return m.Down() })
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "directory holding the SQL migrations")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func runMigration(cfg config.Config, step func(*migrate.Migrate) error) error {
	if cfg.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}

	migrator, err := migrate.New("file://"+migrationsPath, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := step(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("Schema already up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations applied")
	return nil
}

func ensureMongoIndexes(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	users, err := database.OpenUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer users.Close(context.Background())

	if err := users.EnsureSchema(ctx); err != nil {
		return err
	}
	log.Println("Mongo indexes ensured")
	return nil
}
