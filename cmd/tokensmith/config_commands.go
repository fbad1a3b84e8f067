package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tokensmith/internal/asset"
	"tokensmith/internal/config"
	"tokensmith/internal/creature"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the tokensmith configuration",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return err
			}
			if err := config.CreateSample(target, overwrite); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return fmt.Errorf("%w (use --overwrite to replace it)", err)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Point paths.image_dirs at your portrait library, then run 'tokensmith config validate'.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

func configTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

// configCheck is one row of the validate report. An empty problem means ok.
type configCheck struct {
	item    string
	value   string
	problem string
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and the files it points at",
		Long: "Load the configuration, create the build and log directories, and read\n" +
			"the image library, spell catalog, overrides file and default portrait\n" +
			"the way a build would.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			source := resolved
			if !exists {
				source += " (not found, defaults used)"
			}
			checks := []configCheck{{item: "config", value: source}}
			checks = append(checks, checkConfigFiles(cfg)...)

			rows := make([][]string, 0, len(checks))
			problems := 0
			for _, c := range checks {
				status := "ok"
				if c.problem != "" {
					status = c.problem
					problems++
				}
				rows = append(rows, []string{c.item, c.value, status})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Item", "Value", "Status"}, rows, nil))
			if problems > 0 {
				return fmt.Errorf("configuration has %d problem(s)", problems)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func checkConfigFiles(cfg *config.Config) []configCheck {
	var checks []configCheck

	dirs := configCheck{item: "build_dir", value: cfg.Paths.BuildDir}
	if err := cfg.EnsureDirectories(); err != nil {
		dirs.problem = err.Error()
	}
	checks = append(checks, dirs)

	cache := asset.NewCache()
	for _, dir := range cfg.Paths.ImageDirs {
		c := configCheck{item: "image_dir", value: dir}
		if _, err := os.Stat(dir); err != nil {
			c.problem = "missing"
		} else if files, err := cache.Files(dir); err != nil {
			c.problem = err.Error()
		} else {
			c.value = fmt.Sprintf("%s (%d images)", dir, len(files))
		}
		checks = append(checks, c)
	}

	if p := cfg.Paths.SpellCatalog; p != "" {
		c := configCheck{item: "spell_catalog", value: p}
		if spells, err := creature.LoadSpellCatalog(p); err != nil {
			c.problem = err.Error()
		} else {
			c.value = fmt.Sprintf("%s (%d spells)", p, len(spells))
		}
		checks = append(checks, c)
	}
	if p := cfg.Paths.OverridesFile; p != "" {
		c := configCheck{item: "overrides_file", value: p}
		if _, err := creature.LoadOverrides(p); err != nil {
			c.problem = err.Error()
		}
		checks = append(checks, c)
	}
	if p := cfg.Paths.DefaultPortrait; p != "" {
		c := configCheck{item: "default_portrait", value: p}
		if _, err := cache.Load(p); err != nil {
			c.problem = err.Error()
		}
		checks = append(checks, c)
	}
	return checks
}
