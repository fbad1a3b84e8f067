package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tokensmith/internal/config"
	"tokensmith/internal/pipeline"
	"tokensmith/internal/source"
)

type buildOptions struct {
	maxItems int
	delivery bool
	spells   string
	images   []string
	out      string
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build <source>...",
		Short: "Build token containers from creature sources",
		Long: "Build one MapTool token container per creature.\n\n" +
			"Sources ending in .json are creature lists; .rst files and directories are\n" +
			"read as RST stat block documents.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyBuildFlags(cmd, cfg, opts); err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}

			items, err := source.Load(args...)
			if err != nil {
				return err
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

			var summary *pipeline.Summary
			err = withBuildLock(cfg, func() error {
				var runErr error
				summary, runErr = runner.Run(cmd.Context(), items)
				return runErr
			})
			if summary != nil {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if err != nil {
				return err
			}
			if err := summary.Err(); err != nil {
				return err
			}
			if summary.Built() == 0 && summary.Failed() > 0 {
				return errors.New("no token was built")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.maxItems, "max-items", "m", 0, "Process at most this many creatures (0 means no limit)")
	cmd.Flags().BoolVar(&opts.delivery, "delivery", false, "Delivery build: drop debug macros and write the aggregate archive")
	cmd.Flags().StringVar(&opts.spells, "spells", "", "Spell catalog JSON file")
	cmd.Flags().StringArrayVar(&opts.images, "images", nil, "Image library directory (repeatable)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output directory for token containers")
	return cmd
}

// applyBuildFlags layers explicitly set flags over the loaded config.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, opts buildOptions) error {
	flags := cmd.Flags()
	if flags.Changed("max-items") {
		if opts.maxItems < 0 {
			return fmt.Errorf("--max-items must be zero or positive, got %d", opts.maxItems)
		}
		cfg.Build.MaxItems = opts.maxItems
	}
	if flags.Changed("delivery") {
		cfg.Build.Delivery = opts.delivery
	}
	if flags.Changed("spells") {
		path, err := config.ExpandPath(strings.TrimSpace(opts.spells))
		if err != nil {
			return fmt.Errorf("resolve --spells: %w", err)
		}
		cfg.Paths.SpellCatalog = path
	}
	if flags.Changed("images") {
		dirs := make([]string, 0, len(opts.images))
		for _, dir := range opts.images {
			path, err := config.ExpandPath(strings.TrimSpace(dir))
			if err != nil {
				return fmt.Errorf("resolve --images: %w", err)
			}
			dirs = append(dirs, path)
		}
		cfg.Paths.ImageDirs = dirs
	}
	if flags.Changed("out") {
		path, err := config.ExpandPath(strings.TrimSpace(opts.out))
		if err != nil {
			return fmt.Errorf("resolve --out: %w", err)
		}
		cfg.Paths.BuildDir = path
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(out io.Writer, summary *pipeline.Summary) {
	rows := make([][]string, 0, len(summary.Outcomes)+1)
	for _, o := range summary.Outcomes {
		rows = append(rows, outcomeRow(o))
	}
	if summary.Library != nil {
		rows = append(rows, outcomeRow(*summary.Library))
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(out,
			[]string{"Creature", "Status", "Archive", "Portrait", "Macros", "Warnings", "Error"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}
	fmt.Fprintf(out, "Built %d, failed %d", summary.Built(), summary.Failed())
	if summary.Skipped > 0 {
		fmt.Fprintf(out, ", skipped %d (max items)", summary.Skipped)
	}
	fmt.Fprintln(out)
	if summary.DeliveryPath != "" {
		fmt.Fprintf(out, "Delivery archive: %s\n", summary.DeliveryPath)
	}
}

func outcomeRow(o pipeline.Outcome) []string {
	if !o.OK() {
		return []string{o.Name, "failed", "", "", "", strconv.Itoa(len(o.Warnings)), o.Class() + ": " + o.Err.Error()}
	}
	portrait := "default"
	if o.Library {
		portrait = "-"
	} else if !o.Match.Fallback {
		portrait = filepath.Base(o.Match.Path)
	}
	return []string{
		o.Name,
		"built",
		filepath.Base(o.Archive.Path),
		portrait,
		strconv.Itoa(o.Archive.Macros),
		strconv.Itoa(len(o.Warnings)),
		"",
	}
}
