package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rendis/addonkit/pkg/addon"
	"github.com/rendis/addonkit/pkg/config"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [category]",
		Short: "List the units discovered in every category, or in one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ad, err := a.addon()
			if err != nil {
				return err
			}
			categories := addon.Categories()
			if len(args) == 1 {
				categories = args
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Category", "Name", "Version", "Input", "Description"})
			for _, cat := range categories {
				infos, err := ad.List(cat)
				if err != nil {
					return err
				}
				for _, info := range infos {
					input := "-"
					if info.RequiresInput {
						input = "required"
					}
					t.AppendRow(table.Row{cat, info.Name, info.Version, input, info.Description})
				}
			}
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
			t.Render()
			return nil
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	var (
		configPath string
		variant    string
		paramsJSON string
	)
	cmd := &cobra.Command{
		Use:   "run <action>",
		Short: "Run an action, optionally against a validated addon configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ad, err := a.addon()
			if err != nil {
				return err
			}

			var cfg config.Schema
			if configPath != "" {
				cfg, err = validateFile(variant, configPath)
				if err != nil {
					return err
				}
			}

			params := map[string]any{}
			if paramsJSON != "" {
				if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
					return fmt.Errorf("parse --params: %w", err)
				}
			}

			out, err := ad.Run(cmd.Context(), args[0], cfg, params)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, out.Data, "", "  "); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), buf.String())
			return err
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "addon configuration file (YAML or JSON)")
	cmd.Flags().StringVar(&variant, "schema", "base", "configuration variant: "+strings.Join(config.Variants(), ", "))
	cmd.Flags().StringVar(&paramsJSON, "params", "", "action parameters as a JSON object")
	return cmd
}

func newTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Self-test every category and report per-unit results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ad, err := a.addon()
			if err != nil {
				return err
			}
			rep := ad.SelfTest(cmd.Context())

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Category", "Unit", "Status", "Reason"})
			for _, c := range rep.Categories {
				for _, u := range c.Units {
					t.AppendRow(table.Row{c.Name, u.Name, u.Status, u.Reason})
				}
			}
			t.AppendFooter(table.Row{"Total", rep.Total, passedLabel(rep.Passed), ""})
			t.Render()

			if !rep.Passed {
				return rep.Err
			}
			return nil
		},
	}
}

func passedLabel(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}

func newValidateCmd() *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an addon configuration file against a variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := validateFile(variant, args[0])
			if err != nil {
				return err
			}
			base := cfg.Base()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid %s configuration for %q (enabled=%t, secrets: %s)\n",
				args[0], variant, base.ID, base.Enabled, strings.Join(cfg.RequiredSecrets().Keys(), ", "))
			return err
		},
	}
	cmd.Flags().StringVar(&variant, "schema", "base", "configuration variant: "+strings.Join(config.Variants(), ", "))
	return cmd
}

func validateFile(variant, path string) (config.Schema, error) {
	vr, err := config.LookupVariant(variant)
	if err != nil {
		return nil, err
	}
	raw, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return vr.Validate(raw)
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [variant]",
		Short: "Print the JSON Schema of a configuration variant, or list variants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				t := newTable(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"Variant", "Required secrets", "Description"})
				for _, name := range config.Variants() {
					vr, err := config.LookupVariant(name)
					if err != nil {
						return err
					}
					t.AppendRow(table.Row{vr.Name, strings.Join(vr.RequiredSecrets().Keys(), ", "), vr.Description})
				}
				t.Render()
				return nil
			}

			vr, err := config.LookupVariant(args[0])
			if err != nil {
				return err
			}
			raw, err := vr.JSONSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		},
	}
}

func newToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the actions as MCP tool descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ad, err := a.addon()
			if err != nil {
				return err
			}
			tools, err := ad.Tools(cmd.Context())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(tools, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Persist the effective settings to the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := saveSettings(a.settingsFile, a.settings); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", a.settingsFile)
			return err
		},
	}
}
