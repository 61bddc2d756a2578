package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/travel-agency/internal/seed"
	"github.com/frahmantamala/travel-agency/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with staff, profiles, modules, billing clients and dossiers for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			return fmt.Errorf("failed to init gorm: %w", err)
		}

		seeder := seed.New(gormDB, cfg.Security.BCryptCost, logger.L())
		if clearData {
			if err := seeder.Clear(cmd.Context()); err != nil {
				return err
			}
		}

		sum, err := seeder.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"Seeded %d users, %d modules, %d profiles, %d billing clients, %d dossiers, %d assignments (password: %q)\n",
			sum.Users, sum.Modules, sum.Profiles, sum.BillingClients, sum.Dossiers, sum.Assignments, seed.DefaultPassword)
		return nil
	},
}
