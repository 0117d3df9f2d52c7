package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/craft_store/pkg/config"
)

var envFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "craft-store",
		Short:         "Craft store order lifecycle and inventory service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file to load")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newReconcileCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	if envFile != "" {
		return config.Load(envFile)
	}
	return config.Load()
}
