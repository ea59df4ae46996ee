package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bakerlabs/baker/pkg/baker/config"
	"github.com/bakerlabs/baker/pkg/baker/output"
	"github.com/bakerlabs/baker/pkg/baker/scanner"
	"github.com/bakerlabs/baker/pkg/baker/sizecache"
	"github.com/bakerlabs/baker/pkg/baker/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Discover and evaluate project folders under a root",
	Long: `Scan walks the folder tree below the root, identifies project folders,
validates their layout, and checks each manifest for staleness or
corruption. Interrupting a scan keeps everything discovered so far.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScanCmd,
}

func init() {
	scanCmd.Flags().Int("max-depth", 0, "recursion depth below the root (0=config default)")
	scanCmd.Flags().Bool("include-hidden", false, "include dot-folders in the walk")
	rootCmd.AddCommand(scanCmd)
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root := cfg.DefaultRoot
	if len(args) == 1 {
		root = args[0]
	}
	if root == "" {
		return fmt.Errorf("no scan root given and default_root is not configured")
	}

	opts := types.ScanOptions{
		MaxDepth:      cfg.Scan.MaxDepth,
		IncludeHidden: cfg.Scan.IncludeHidden,
	}
	if depth, _ := cmd.Flags().GetInt("max-depth"); depth > 0 {
		opts.MaxDepth = depth
	}
	if hidden, _ := cmd.Flags().GetBool("include-hidden"); hidden {
		opts.IncludeHidden = true
	}

	var sizer scanner.Sizer
	if cfg.SizeCache.Enabled {
		if err := config.EnsureCacheDir(); err != nil {
			return err
		}
		cache, err := sizecache.Open(cfg.SizeCache.Path)
		if err != nil {
			printError("size cache unavailable, computing sizes directly: %v", err)
		} else {
			defer func() { _ = cache.Close() }()
			sizer = cache
		}
	}

	orch := scanner.New(sizer)
	jobID, events, err := orch.StartScan(cmd.Context(), root, opts)
	if err != nil {
		return err
	}

	// Ctrl-C cancels the scan but keeps partial results.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-interrupt; ok {
			printInfo("interrupt received, stopping scan")
			_ = orch.Cancel(jobID)
		}
	}()

	for event := range events {
		if event.Type == scanner.EventProgress && getVerbose() && event.Progress != nil {
			fmt.Fprintf(os.Stderr, "scanning %s (%d folders, %d projects)\n",
				event.Progress.CurrentPath, event.Progress.FoldersScanned, event.Progress.ProjectsFound)
		}
	}
	signal.Stop(interrupt)
	close(interrupt)

	result, state, err := orch.Status(jobID)
	if err != nil {
		return err
	}
	if state == scanner.StateErrored {
		printError("scan failed; partial results follow")
	}
	return renderReport(&output.Report{Scan: &result})
}
