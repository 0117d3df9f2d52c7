package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/craft_store/pkg/logging"
)

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <orderID>",
		Short: "Replay the restock of an annulled order",
		Long: "Releases every line item of an annulled order that has not been " +
			"released yet. Running it again is harmless.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q: %w", args[0], err)
			}

			cfg := loadConfig()
			l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "command", "reconcile")
			ctx := logging.IntoContext(cmd.Context(), l)

			a, err := newApp(ctx, cfg, l, true)
			if err != nil {
				return err
			}
			defer a.Close()

			restored, err := a.orders.Replay(ctx, id)
			if err != nil {
				return err
			}

			l.Info("reconcile_success", "order_id", id, "restored_units", restored.Total())
			for productID, qty := range restored {
				fmt.Fprintf(cmd.OutOrStdout(), "product %d: +%d\n", productID, qty)
			}
			return nil
		},
	}
}
