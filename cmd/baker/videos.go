package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
	"github.com/bakerlabs/baker/pkg/baker/tracking"
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "Manage a project's hosted video links",
}

var videosListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List a project's video links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		links, err := tracking.NewManager().VideoLinks(args[0])
		if err != nil {
			return err
		}
		if len(links) == 0 {
			printInfo("no video links")
			return nil
		}
		for i, l := range links {
			printInfo("%d: %s %s", i, l.Title, l.URL)
		}
		return nil
	},
}

var videosAddCmd = &cobra.Command{
	Use:   "add <project> <url> <title>",
	Short: "Add a video link to a project",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		rec, err := tracking.NewManager().AddVideoLink(args[0], manifest.VideoLink{
			URL:   args[1],
			Title: args[2],
		})
		if err != nil {
			return err
		}
		printInfo("added video link (%d total)", len(rec.VideoLinks))
		return nil
	},
}

var videosRemoveCmd = &cobra.Command{
	Use:   "remove <project> <index>",
	Short: "Remove the video link at the given index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("index must be a number: %s", args[1])
		}
		rec, err := tracking.NewManager().RemoveVideoLink(args[0], index)
		if err != nil {
			return err
		}
		printInfo("removed video link (%d remaining)", len(rec.VideoLinks))
		return nil
	},
}

var videosMoveCmd = &cobra.Command{
	Use:   "move <project> <from> <to>",
	Short: "Reorder a project's video links",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		from, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("from must be a number: %s", args[1])
		}
		to, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("to must be a number: %s", args[2])
		}
		if _, err := tracking.NewManager().ReorderVideoLinks(args[0], from, to); err != nil {
			return err
		}
		printInfo("moved video link %d to %d", from, to)
		return nil
	},
}

func init() {
	videosCmd.AddCommand(videosListCmd, videosAddCmd, videosRemoveCmd, videosMoveCmd)
	rootCmd.AddCommand(videosCmd)
}
