package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tokensmith/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect recorded builds",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var successful bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded builds, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var builds []ledger.Build
			if successful {
				builds, err = store.Successful(cmd.Context())
			} else {
				builds, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(builds) == 0 {
				fmt.Fprintln(out, "No builds recorded")
				return nil
			}
			rows := make([][]string, 0, len(builds))
			for _, b := range builds {
				rows = append(rows, ledgerRow(b))
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Built", "Creature", "Status", "Macros", "Default Portrait", "Archive / Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to show (0 shows all)")
	cmd.Flags().BoolVar(&successful, "successful", false, "Only show the latest successful build per creature")
	return cmd
}

func ledgerRow(b ledger.Build) []string {
	detail := filepath.Base(b.ArchivePath)
	if !b.Succeeded() {
		detail = b.ErrorClass
		if b.ErrorMessage != "" {
			detail += ": " + b.ErrorMessage
		}
	}
	creature := b.Creature
	if b.Library {
		creature += " (library)"
	}
	return []string{
		strconv.FormatInt(b.ID, 10),
		b.BuiltAt.Local().Format(time.DateTime),
		creature,
		string(b.Status),
		strconv.Itoa(b.Macros),
		yesNo(b.PortraitFallback),
		detail,
	}
}
