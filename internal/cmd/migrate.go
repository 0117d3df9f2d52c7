package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/craft_store/internal/repo"
	"github.com/Skotchmaster/craft_store/pkg/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "command", "migrate")

			a, err := newApp(cmd.Context(), cfg, l, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := repo.Migrate(a.db); err != nil {
				return err
			}
			l.Info("migrate_success")
			return nil
		},
	}
}
