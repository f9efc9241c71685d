package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"karolbroda.com/duet/internal/config"
)

var (
	// global flags
	mprisService string
	syncOffset   float64
	hideHeader   bool
	lrclibURL    string
	noCache      bool
	layoutName   string
	logFile      string
)

var rootCmd = &cobra.Command{
	Use:   "duet",
	Short: "terminal bilingual lyrics viewer",
	Long: `duet is a terminal synchronized lyrics viewer for linux music players.
it shows the original lyrics and their translation side by side, in a layout
that keeps the active line readable at any terminal size.

when run without a subcommand, it starts the interactive TUI viewer.`,
	Version: "1.0.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runViewer(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&mprisService, "mpris-service", "m", "", "mpris service or player name (e.g., spotify)")
	rootCmd.PersistentFlags().Float64VarP(&syncOffset, "sync-offset", "s", 0, "sync offset in seconds for songs without a saved one")
	rootCmd.PersistentFlags().BoolVarP(&hideHeader, "hide-header", "H", false, "hide header section")
	rootCmd.PersistentFlags().StringVar(&lrclibURL, "lrclib-url", "", "custom lrclib api url")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable cache reads (always fetch fresh)")
	rootCmd.PersistentFlags().StringVar(&layoutName, "layout", "", "layout strategy: cascade or collision")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write json logs to this file")
}

// loadConfig reads the environment and config file, then applies any flags the
// user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if mprisService != "" {
		cfg.MprisService = mprisService
	}
	if lrclibURL != "" {
		cfg.LrclibURL = lrclibURL
	}
	if layoutName != "" {
		cfg.Layout.Strategy = layoutName
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if flags.Changed("sync-offset") {
		cfg.SyncOffset = syncOffset
	}
	if flags.Changed("hide-header") {
		cfg.HideHeader = hideHeader
	}
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
