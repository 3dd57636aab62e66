package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jobhub/identity/internal/infrastructure/config"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install roles, the permission catalogue and an optional administrator",
	Long: "Creates the five roles, the default permissions and the role to permission map.\n" +
		"When SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are set, that account is created and granted ADMIN.\n" +
		"Running it again only fills in what is missing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, log, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.StoreDriver == config.StoreMemory {
			return errors.New("seed: the memory store is seeded by serve on startup")
		}
		// Seeding never signs tokens, so the JWT secrets are not required.
		cfg.Redis.Enabled = false
		if cfg.JWT.AccessSecret == "" {
			cfg.JWT.AccessSecret = "seed-access"
		}
		if cfg.JWT.RefreshSecret == "" || cfg.JWT.RefreshSecret == cfg.JWT.AccessSecret {
			cfg.JWT.RefreshSecret = cfg.JWT.AccessSecret + "-refresh"
		}

		a, err := buildApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		report, err := a.seeder().Seed(ctx, adminAccount(cfg))
		if err != nil {
			return err
		}
		log.Info().
			Int("permissions_created", report.PermissionsCreated).
			Int("roles_resolved", report.RolesResolved).
			Int("grants_created", report.GrantsCreated).
			Bool("admin_created", report.AdminCreated).
			Msg("seed complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
