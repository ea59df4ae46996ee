package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bakerlabs/baker/pkg/baker/batch"
	"github.com/bakerlabs/baker/pkg/baker/config"
	"github.com/bakerlabs/baker/pkg/baker/output"
	"github.com/bakerlabs/baker/pkg/baker/scanner"
	"github.com/bakerlabs/baker/pkg/baker/types"
)

var updateCmd = &cobra.Command{
	Use:   "update [project]...",
	Short: "Rewrite project manifests to match the footage on disk",
	Long: `Update rewrites each project's manifest from a fresh folder scan.
Given explicit project paths it updates exactly those; with --root it
first scans for projects and updates every one it finds. Each path
succeeds or fails independently.`,
	RunE: runUpdateCmd,
}

func init() {
	updateCmd.Flags().String("root", "", "scan this root for projects instead of listing paths")
	updateCmd.Flags().Bool("create-missing", false, "create manifests for valid projects that lack one")
	updateCmd.Flags().Bool("backup", false, "back up each manifest before rewriting it")
	updateCmd.Flags().Bool("no-backup", false, "skip backups even if configured on")
	rootCmd.AddCommand(updateCmd)
}

func runUpdateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := types.ScanOptions{
		MaxDepth:        cfg.Scan.MaxDepth,
		IncludeHidden:   cfg.Scan.IncludeHidden,
		CreateMissing:   cfg.Scan.CreateMissing,
		BackupOriginals: cfg.Scan.BackupOriginals,
	}
	if create, _ := cmd.Flags().GetBool("create-missing"); create {
		opts.CreateMissing = true
	}
	if backup, _ := cmd.Flags().GetBool("backup"); backup {
		opts.BackupOriginals = true
	}
	if noBackup, _ := cmd.Flags().GetBool("no-backup"); noBackup {
		opts.BackupOriginals = false
	}

	paths := args
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		if len(args) > 0 {
			return fmt.Errorf("give either --root or explicit project paths, not both")
		}
		paths, err = discoverProjects(cmd, root, opts)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			printInfo("no projects found under %s", root)
			return nil
		}
	}

	if err := config.EnsureDataDir(); err != nil {
		return err
	}
	executor := batch.New(cfg.LockPath)
	outcome, err := executor.Apply(cmd.Context(), paths, opts)
	if err != nil {
		return err
	}
	return renderReport(&output.Report{Batch: outcome})
}

// discoverProjects scans the root and returns the paths of every
// project folder found.
func discoverProjects(cmd *cobra.Command, root string, opts types.ScanOptions) ([]string, error) {
	orch := scanner.New(nil)
	jobID, events, err := orch.StartScan(cmd.Context(), root, opts)
	if err != nil {
		return nil, err
	}
	for range events {
		// Drain until the job is terminal.
	}

	result, state, err := orch.Status(jobID)
	if err != nil {
		return nil, err
	}
	if state != scanner.StateCompleted {
		return nil, fmt.Errorf("project discovery did not complete (state %s)", state)
	}

	paths := make([]string, 0, len(result.Projects))
	for _, p := range result.Projects {
		if p.ManifestCorrupt || p.HasManifest || p.IsValid {
			paths = append(paths, p.Path)
		}
	}
	return paths, nil
}
