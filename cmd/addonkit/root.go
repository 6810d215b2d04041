package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rendis/addonkit/internal/logging"
	"github.com/rendis/addonkit/pkg/addon"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	flagDir       = "dir"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagSettings  = "settings"
)

// app carries what PersistentPreRunE resolves to the subcommands.
type app struct {
	settingsFile string
	getenv       func(string) string

	settings Settings
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{getenv: os.Getenv}

	cmd := &cobra.Command{
		Use:   "addonkit [sub-command]",
		Short: "Inspect, validate and run addon units",
		Long: `addonkit discovers the units of an addon (one directory per category),
  validates addon configurations and runs actions against them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: a.setup,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	f := cmd.PersistentFlags()
	f.String(flagDir, "", "addon root directory (default: embedded builtin units)")
	f.String(flagLogLevel, "", "log level: debug, info, warn, error")
	f.String(flagLogFormat, "", "log format: text, json")
	f.StringVar(&a.settingsFile, flagSettings, settingsPath(), "settings file")

	cmd.AddCommand(
		newListCmd(a),
		newRunCmd(a),
		newTestCmd(a),
		newValidateCmd(),
		newSchemaCmd(),
		newToolsCmd(a),
		newInitCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// setup resolves settings and the logger. Flags override everything else.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(a.settingsFile, a.getenv)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed(flagDir) {
		s.Dir, _ = flags.GetString(flagDir)
	}
	if flags.Changed(flagLogLevel) {
		s.LogLevel, _ = flags.GetString(flagLogLevel)
	}
	if flags.Changed(flagLogFormat) {
		s.LogFormat, _ = flags.GetString(flagLogFormat)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
	if err != nil {
		return err
	}
	a.settings = s
	a.logger = logger
	return nil
}

// addon builds an Addon over the configured root.
func (a *app) addon() (*addon.Addon, error) {
	opts := []addon.Option{addon.WithLogger(a.logger)}
	if a.settings.Dir != "" {
		opts = append(opts, addon.WithFS(os.DirFS(a.settings.Dir)))
	}
	return addon.New(opts...)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}

// readConfigFile decodes a YAML or JSON addon configuration.
func readConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
