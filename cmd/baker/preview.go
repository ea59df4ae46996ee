package main

import (
	"github.com/spf13/cobra"

	"github.com/bakerlabs/baker/pkg/baker/diff"
	"github.com/bakerlabs/baker/pkg/baker/manifest"
	"github.com/bakerlabs/baker/pkg/baker/output"
	"github.com/bakerlabs/baker/pkg/baker/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview <project>",
	Short: "Show what an update would change, without writing anything",
	Long: `Preview scans the project folder, synthesizes the manifest an update
would write, and shows the differences. Tool-generated bookkeeping
(scan stamps, maintenance markers) is filtered out unless --all is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreviewCmd,
}

func init() {
	previewCmd.Flags().Bool("all", false, "include maintenance-only changes")
	rootCmd.AddCommand(previewCmd)
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	projectPath := args[0]

	current, err := manifest.Read(projectPath)
	if err != nil {
		// A corrupt manifest previews as a from-scratch rebuild.
		printError("manifest unreadable, previewing a rebuild: %v", err)
		current = nil
	}

	bundle := preview.NewGenerator().Generate(current, projectPath)

	chosen := bundle.MeaningfulDiff
	if all, _ := cmd.Flags().GetBool("all"); all {
		chosen = bundle.Diff
	}
	changes := diff.Categorize(projectPath, chosen)
	return renderReport(&output.Report{Preview: &changes})
}
