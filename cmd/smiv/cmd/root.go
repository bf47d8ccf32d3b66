// Package cmd wires the CLI surface: the root command opens the viewer
// window, subcommands cover headless inspection and export.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"smiv/internal/config"
	"smiv/internal/gui"
	"smiv/internal/logger"
	"smiv/internal/preset"
	"smiv/internal/shutdown"
	"smiv/internal/viewer"
)

// options carries the shared bootstrap state into every subcommand.
type options struct {
	cfg *config.Config
	log logger.Logger
}

func NewRoot(version string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "smiv [files...]",
		Short: "Slice/time viewer for medical and pathology images",
		Long: "smiv displays DICOM series, volumetric files, rasters and " +
			"whole-slide overviews with windowing, preprocessing and " +
			"segmentation overlays.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.bootstrap(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("no input files (try: smiv scan.dcm)")
			}

			store, err := preset.DefaultStore()
			if err != nil {
				opts.log.Warning("cli", "session presets disabled", map[string]interface{}{"error": err.Error()})
				store = nil
			}

			ctrl, err := viewer.New(args, opts.cfg, opts.log, store)
			if err != nil {
				return err
			}

			win := gui.NewViewer(ctrl, opts.log)

			mgr := shutdown.NewManager(opts.log)
			mgr.Register(win)
			mgr.Listen()

			win.Run()
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", config.DefaultPath(), "path to the YAML configuration file")
	pf.String("log-level", "", "log level (debug, info, warn, error); overrides the config file")
	pf.String("log-file", "", "write JSON logs to a rotating file; overrides the config file")

	cmd.AddCommand(
		newVersionCmd(version),
		newInfoCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// bootstrap loads configuration and builds the logger before any command
// body runs. Flags win over the config file.
func (o *options) bootstrap(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if file, _ := cmd.Flags().GetString("log-file"); file != "" {
		cfg.Logging.File = file
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.File != "" {
		o.log = logger.NewFileLogger(cfg.Logging.File, level)
	} else {
		o.log = logger.NewConsoleLogger(level)
	}

	o.cfg = cfg
	return nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
