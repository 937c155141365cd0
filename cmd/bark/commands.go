package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/modoterra/bark/pkg/config"
	"github.com/modoterra/bark/pkg/config/presets"
	"github.com/modoterra/bark/pkg/filter"
	"github.com/modoterra/bark/pkg/transport/uds"
)

// --- Send ---

var (
	sendSocket string
	sendName   string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Pipe standard input into a listening bark",
	Long:  "Reads lines from standard input and sends them to a bark started with --listen.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		client, err := uds.Dial(sendSocket)
		if err != nil {
			return fmt.Errorf("cannot connect to bark at %s: %w", sendSocket, err)
		}
		defer client.Close()

		n, err := client.Pipe(ctx, sendName, cmd.InOrStdin())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "sent %d lines\n", n)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendSocket, "socket", uds.DefaultSocketPath(), "socket of the listening bark")
	sendCmd.Flags().StringVar(&sendName, "name", "", "client name shown in the viewer's log")
}

// --- Config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bark.yaml",
}

var (
	configInitRoot   string
	configInitOutput string
	configInitForce  bool
)

var configInitCmd = &cobra.Command{
	Use:   "init <preset>",
	Short: "Generate a bark.yaml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := presets.Generate(args[0], configInitRoot)
		if err != nil {
			return err
		}
		if configInitOutput == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if _, err := os.Stat(configInitOutput); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configInitOutput)
		}
		if err := os.WriteFile(configInitOutput, data, 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated %s from the %s preset\n", configInitOutput, args[0])
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a bark.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultFile
		if len(args) > 0 {
			path = args[0]
		}

		c, err := config.Load(path)
		if err != nil {
			return err
		}

		errs := config.Validate(c)
		if len(errs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d sources, %d filters)\n", path, len(c.Sources), len(c.Filters))
			return nil
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d error(s)\n", path, len(errs))
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "  • %s\n", e)
		}
		return fmt.Errorf("%s is invalid", path)
	},
}

func init() {
	configInitCmd.Long = "Available presets: " + strings.Join(presets.Names(), ", ")
	configInitCmd.Flags().StringVar(&configInitRoot, "root", ".", "project root directory")
	configInitCmd.Flags().StringVar(&configInitOutput, "output", config.DefaultFile, "output file path, - for stdout")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

// --- Filters ---

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Inspect saved filters",
}

var filtersJSON bool

// listedFilter is a saved filter with where it was defined.
type listedFilter struct {
	filter.SavedFilter
	Origin string `json:"origin"`
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters from bark.yaml and preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		env, _ := config.FromEnv(os.Getenv)
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
		p := loadPrefs(prefsLocation(cfg, env), logger)

		var list []listedFilter
		stored := map[string]bool{}
		for _, sf := range p.Filters {
			stored[strings.ToLower(sf.Name)] = true
		}
		if cfg != nil {
			for _, sf := range cfg.Filters {
				if !stored[strings.ToLower(sf.Name)] {
					list = append(list, listedFilter{sf, "config"})
				}
			}
		}
		for _, sf := range p.Filters {
			list = append(list, listedFilter{sf, "prefs"})
		}

		out := cmd.OutOrStdout()
		if filtersJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "no saved filters")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tMODE\tPATTERN\tORIGIN")
		for _, f := range list {
			mode := "literal"
			if f.IsRegex {
				mode = "regex"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, mode, f.Pattern, f.Origin)
		}
		return tw.Flush()
	},
}

func init() {
	filtersListCmd.Flags().BoolVar(&filtersJSON, "json", false, "output as JSON")
	filtersListCmd.Flags().StringVar(&configPath, "config", "", "path to bark.yaml")
	filtersListCmd.Flags().StringVar(&prefsFlag, "prefs", "", "preferences file")
	filtersCmd.AddCommand(filtersListCmd)
}
