package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time via -ldflags.
	Version = "dev"

	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "battlegw",
	Short: "battlegw runs the text-to-music A/B battle gateway",
	Long: `battlegw serves the HTTP API that pairs a submitted prompt
against two generation systems, collects their audio, and records the
resulting battle for later voting.

Run 'battlegw serve' to start the gateway.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "battlegw:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML); flags and BATTLEGW_* env vars take precedence")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable development-mode (human-readable) logging")

	viper.SetEnvPrefix("battlegw")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd)
}

func loadConfigFile() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", cfgFile, err)
	}
	return nil
}
