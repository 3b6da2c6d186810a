package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RivalSee/botsee-skill/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update [version]",
	Short: "Update the installed BotSee skill",
	Long: `Download and install a newer BotSee release. Without an argument the
server is asked whether an update is available; nothing is installed
when the client is already current.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var target string
		if len(args) == 1 {
			target = args[0]
		} else {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			// Any authenticated call carries the update advertisement.
			if _, err := client.Usage(cmd.Context()); err != nil {
				return err
			}
			target = client.UpdateNotice()
			if target == "" {
				printSuccess("BotSee %s is up to date", version)
				return nil
			}
		}

		printStep("Updating to %s", target)
		installer := &updater.Installer{Log: os.Stderr}
		if err := installer.Update(cmd.Context(), target); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		printSuccess("Updated to BotSee %s", target)
		return nil
	},
}
