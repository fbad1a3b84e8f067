package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tokensmith/internal/pipeline"
)

func newDeliveryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delivery",
		Short: "Bundle recorded token containers into one delivery archive",
		Long: "Assemble the aggregate archive from the latest successful build of every\n" +
			"creature in the ledger. Containers are copied unchanged.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			store, err := ctx.openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runner, err := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithRecorder(store))
			if err != nil {
				return err
			}

			var res pipeline.DeliveryResult
			err = withBuildLock(cfg, func() error {
				var deliverErr error
				res, deliverErr = runner.Deliver(cmd.Context(), store)
				return deliverErr
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Delivery archive: %s\n", res.Path)
			fmt.Fprintf(out, "Creatures: %d\n", len(res.Members))
			fmt.Fprintf(out, "Library: %s\n", res.Library)
			if len(res.Missing) > 0 {
				fmt.Fprintf(out, "Missing containers skipped: %d\n", len(res.Missing))
			}
			if len(res.Shadowed) > 0 {
				fmt.Fprintf(out, "Superseded containers skipped: %d\n", len(res.Shadowed))
			}
			return nil
		},
	}
}
