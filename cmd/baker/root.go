package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bakerlabs/baker/pkg/baker/config"
	"github.com/bakerlabs/baker/pkg/baker/logging"
	"github.com/bakerlabs/baker/pkg/baker/output"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "baker",
		Short: "Keep project manifests in sync with footage on disk",
		Long: `Baker scans media project folders, validates their layout, and keeps
each project's breadcrumbs.json manifest in sync with the footage on disk.

Examples:
  baker scan /media/projects          # Discover and evaluate projects
  baker preview "/media/projects/P"   # Show what an update would change
  baker update --root /media/projects # Rewrite stale manifests
  baker validate "/media/projects/P"  # Check a single folder's layout
  baker config show                   # Show configuration`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/baker/config.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "pretty", "output format: "+strings.Join(output.Available(), ", "))
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "baker"))
		}
		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "baker"))
		}
	}

	viper.SetEnvPrefix("BAKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("scan.max_depth", config.DefaultMaxDepth)
	viper.SetDefault("logging.level", config.DefaultLogLevel)

	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the application config and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if getVerbose() {
		level = "debug"
	}
	if err := logging.Init(logging.Config{
		Level:      level,
		Path:       cfg.Logging.Path,
		Components: cfg.Logging.Components,
		Console:    cfg.Logging.Console || getVerbose(),
	}); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	return cfg, nil
}

// renderReport formats a report with the selected formatter and prints
// it to stdout.
func renderReport(r *output.Report) error {
	formatter, err := output.Get(viper.GetString("format"))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
