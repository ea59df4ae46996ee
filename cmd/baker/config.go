package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bakerlabs/baker/pkg/baker/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage baker configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/baker/config.yaml (if set)
  2. ~/.config/baker/config.yaml

Environment variables can override config file settings using the BAKER_ prefix:
  BAKER_DEFAULT_ROOT=/mnt/media/projects
  BAKER_SCAN_MAX_DEPTH=3
  BAKER_SCAN_BACKUP_ORIGINALS=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		// Show defaults anyway
		cfg = &config.Config{}
		cfg.Scan.MaxDepth = config.DefaultMaxDepth
		cfg.Scan.BackupOriginals = true
		cfg.SizeCache.Enabled = true
		cfg.Logging.Level = config.DefaultLogLevel
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("default_root:          %s\n", cfg.DefaultRoot)
	fmt.Printf("lock_path:             %s\n", cfg.LockPath)
	fmt.Printf("scan.max_depth:        %d\n", cfg.Scan.MaxDepth)
	fmt.Printf("scan.include_hidden:   %t\n", cfg.Scan.IncludeHidden)
	fmt.Printf("scan.create_missing:   %t\n", cfg.Scan.CreateMissing)
	fmt.Printf("scan.backup_originals: %t\n", cfg.Scan.BackupOriginals)
	fmt.Printf("size_cache.enabled:    %t\n", cfg.SizeCache.Enabled)
	fmt.Printf("size_cache.path:       %s\n", cfg.SizeCache.Path)
	fmt.Printf("logging.level:         %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:          %s\n", cfg.Logging.Path)
	fmt.Printf("logging.console:       %t\n", cfg.Logging.Console)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"BAKER_DEFAULT_ROOT",
		"BAKER_LOCK_PATH",
		"BAKER_SCAN_MAX_DEPTH",
		"BAKER_SCAN_INCLUDE_HIDDEN",
		"BAKER_SCAN_CREATE_MISSING",
		"BAKER_SCAN_BACKUP_ORIGINALS",
		"BAKER_SIZE_CACHE_ENABLED",
		"BAKER_SIZE_CACHE_PATH",
		"BAKER_LOGGING_LEVEL",
		"BAKER_TRACKING_API_KEY",
		"BAKER_TRACKING_API_TOKEN",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'baker config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	fmt.Println(filepath.Join(configDir, "config.yaml"))
	return nil
}
