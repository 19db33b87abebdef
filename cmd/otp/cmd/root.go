package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePins/pkg/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var (
	okMark   = color.New(color.FgGreen, color.Bold).Sprint("✓")
	warnMark = color.New(color.FgYellow, color.Bold).Sprint("!")
	errColor = color.New(color.FgRed, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:   "otp",
	Short: "OpenTracePins - pin and power stripe geometry for IC tiles",
	Long: `OpenTracePins (otp) builds the top-level port geometry of a layout tile:
  - power stripes drawn from the project's stripe table
  - pins extracted from a DEF file (met4 PINS with a PLACED clause)

The merged model is written as GDSII, an SVG preview and a msgpack pin list.

Examples:
  otp build def/tt_um_rc_filter.def       # stripes + DEF pins -> gds/<cell>.gds
  otp build --format gds,svg,ports        # all outputs, DEF paths from otp.toml
  otp ports def/tt_um_rc_filter.def       # list extracted pins
  otp stripes                             # show the stripe table geometry`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		errColor.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "project file (default: otp.toml/otp.yaml found from the working directory up)")
}

// loadConfig reads --config, else the nearest project file, else the
// built-in defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		path = found
	}

	if path == "" {
		cfg := config.DefaultConfig()
		return cfg, cfg.Validate()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Printf("Using project file %s\n", path)
	}
	return cfg, nil
}
