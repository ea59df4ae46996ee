package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bakerlabs/baker/pkg/baker/config"
	"github.com/bakerlabs/baker/pkg/baker/sizecache"
	"github.com/bakerlabs/baker/pkg/baker/types"
	"github.com/bakerlabs/baker/pkg/baker/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Watch project folders and keep cached sizes fresh",
	Long: `Watch discovers projects under the root, then watches each one for
filesystem changes. Cached folder sizes are invalidated as footage
moves, so the next scan reports accurate sizes. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatchCmd,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root := cfg.DefaultRoot
	if len(args) == 1 {
		root = args[0]
	}
	if root == "" {
		return fmt.Errorf("no root given and default_root is not configured")
	}

	var cache *sizecache.Cache
	if cfg.SizeCache.Enabled {
		if err := config.EnsureCacheDir(); err != nil {
			return err
		}
		if cache, err = sizecache.Open(cfg.SizeCache.Path); err != nil {
			return fmt.Errorf("open size cache: %w", err)
		}
		defer func() { _ = cache.Close() }()
	}

	paths, err := discoverProjects(cmd, root, types.ScanOptions{
		MaxDepth:      cfg.Scan.MaxDepth,
		IncludeHidden: cfg.Scan.IncludeHidden,
	})
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no projects found under %s", root)
	}

	var invalidator watcher.Invalidator
	if cache != nil {
		invalidator = cache
	}
	w, err := watcher.New(invalidator)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	for _, p := range paths {
		if err := w.Watch(p); err != nil {
			printError("cannot watch %s: %v", p, err)
		}
	}
	printInfo("watching %d projects under %s", len(w.Projects()), root)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	w.Run(ctx, func(projectPath string) {
		if getVerbose() {
			printInfo("changed: %s", projectPath)
		}
	})
	return nil
}
