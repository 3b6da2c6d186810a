package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show locally recorded analyses and generated content",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store := openHistory()
		if store == nil {
			return fmt.Errorf("history unavailable")
		}
		defer store.Close()

		analyses, err := store.RecentAnalyses(limit)
		if err != nil {
			return err
		}
		if len(analyses) == 0 {
			fmt.Println("No analyses recorded yet. Run: botsee analyze")
			return nil
		}

		fmt.Println(colorize(colorBold, "Analyses"))
		for _, a := range analyses {
			fmt.Printf("  %s  %-10s %s\n", a.StartedAt.Local().Format(time.DateTime), a.Status, a.UUID)
		}

		content, err := store.RecentContent(limit)
		if err != nil {
			return err
		}
		if len(content) > 0 {
			fmt.Println()
			fmt.Println(colorize(colorBold, "Generated content"))
			for _, c := range content {
				fmt.Printf("  %s  %-30s %d credits\n", c.CreatedAt.Local().Format(time.DateTime), c.Filename, c.CreditsUsed)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 10, "maximum entries to show")
}
