// Package cmd provides the command-line interface for compvault with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. COMPVAULT_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (COMPVAULT_SERVER_PORT, etc.)
//	4. Configuration files (.compvault.yml) - lowest priority
//
// Environment Variables:
//
//	COMPVAULT_CONFIG_FILE: Path to custom configuration file
//	COMPVAULT_SERVER_PORT: Override server port
//	COMPVAULT_SERVER_HOST: Override server host
//	COMPVAULT_PREVIEW_DEBOUNCE_MS: Override the render debounce
//	And more following the COMPVAULT_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "compvault",
	Short: "Live preview engine for web component sources",
	Long: `Compvault renders React, Vue, and static web component sources into
self-contained sandbox documents with live reload, console capture, and
device simulation.

Key Features:
  • Import scanning and CDN dependency resolution
  • Per-file framework detection
  • Self-contained preview document generation
  • Sandboxed execution with console relay
  • WebSocket-based live updates

Quick Start:
  compvault serve                 Start the preview server
  compvault render App.tsx        Render sources to a preview document
  compvault scan App.tsx          List imports and external packages
  compvault detect src/           Classify sources by framework`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .compvault.yml, can also use COMPVAULT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. COMPVAULT_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .compvault.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("COMPVAULT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".compvault")
	}

	viper.SetEnvPrefix("COMPVAULT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files degrade to defaults without failing.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
