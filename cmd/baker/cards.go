package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bakerlabs/baker/pkg/baker/manifest"
	"github.com/bakerlabs/baker/pkg/baker/tracking"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Manage a project's tracking card associations",
}

var cardsListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List the cards associated with a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		cards, err := tracking.NewManager().Cards(args[0])
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			printInfo("no cards")
			return nil
		}
		for i, c := range cards {
			board := ""
			if c.BoardName != nil {
				board = " (" + *c.BoardName + ")"
			}
			printInfo("%d: %s%s %s", i, c.Title, board, c.URL)
		}
		return nil
	},
}

var cardsAddCmd = &cobra.Command{
	Use:   "add <project> <card-url>",
	Short: "Associate a card with a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		card := manifest.Card{URL: args[1], Title: title}
		if card.Title == "" {
			id, err := tracking.ParseCardID(card.URL)
			if err != nil {
				return err
			}
			card.Title = "Card " + id
		}

		rec, err := tracking.NewManager().AddCard(args[0], card)
		if err != nil {
			return err
		}
		printInfo("added card (%d total)", len(rec.Cards))
		return nil
	},
}

var cardsRemoveCmd = &cobra.Command{
	Use:   "remove <project> <index>",
	Short: "Remove the card at the given index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("index must be a number: %s", args[1])
		}
		rec, err := tracking.NewManager().RemoveCard(args[0], index)
		if err != nil {
			return err
		}
		printInfo("removed card (%d remaining)", len(rec.Cards))
		return nil
	},
}

func init() {
	cardsAddCmd.Flags().String("title", "", "card title (defaults to the card id)")
	cardsCmd.AddCommand(cardsListCmd, cardsAddCmd, cardsRemoveCmd)
	rootCmd.AddCommand(cardsCmd)
}
