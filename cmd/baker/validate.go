package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
	"github.com/bakerlabs/baker/pkg/baker/project"
)

var validateCmd = &cobra.Command{
	Use:   "validate <project>",
	Short: "Check a folder against the required project layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateCmd,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	projectPath := args[0]

	valid, problems, cameras := project.Validate(projectPath)
	if valid {
		printInfo("valid project (%d camera folders)", cameras)
	} else {
		printInfo("invalid project:")
		for _, p := range problems {
			printInfo("  - %s", p)
		}
	}

	rec, err := manifest.Read(projectPath)
	switch {
	case errors.Is(err, manifest.ErrCorrupt):
		printInfo("manifest: corrupt")
		if getVerbose() {
			if raw, rawErr := manifest.ReadRaw(projectPath); rawErr == nil {
				printInfo("--- raw manifest ---\n%s", raw)
			}
		}
	case err != nil:
		return err
	case rec == nil:
		printInfo("manifest: missing")
	default:
		stale, err := project.IsStale(projectPath, rec)
		if err != nil {
			return err
		}
		if stale {
			printInfo("manifest: stale")
		} else {
			printInfo("manifest: up to date")
		}
	}

	if !valid {
		return fmt.Errorf("%s is not a valid project folder", projectPath)
	}
	return nil
}
