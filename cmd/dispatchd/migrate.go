package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}
