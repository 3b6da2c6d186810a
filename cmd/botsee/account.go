package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RivalSee/botsee-skill/internal/api"
	"github.com/RivalSee/botsee-skill/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credit balance and active site",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

// showStatus backs both the status command and a bare botsee invocation.
// Without a saved config it prints a getting-started hint instead of
// failing.
func showStatus(ctx context.Context) error {
	cfg, err := config.LoadUser()
	if err != nil {
		return err
	}
	if cfg == nil || cfg.APIKey == "" {
		fmt.Println("Not signed up yet. Run: botsee signup")
		return nil
	}

	client := api.New(config.BaseURL(), cfg.APIKey, version)
	usage, err := client.Usage(ctx)
	if err != nil {
		return err
	}

	printStatus("API key", "...%s", keySuffix(cfg.APIKey))
	printStatus("Credits", "%d remaining", usage.Balance)
	if cfg.SiteUUID != "" {
		printStatus("Active site", "%s", cfg.SiteUUID)
	} else {
		printStatus("Active site", "none (run: botsee setup <domain>)")
	}
	if ws, err := config.LoadWorkspace(); err == nil && ws != nil {
		printStatus("Workspace", "%s (%d types / %d personas / %d questions)",
			ws.Domain, ws.Types, ws.PersonasPerType, ws.QuestionsPerPersona)
	}
	maybePrintUpdateNotice(client)
	return nil
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show account details",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		acct, err := client.Account(cmd.Context())
		if err != nil {
			return err
		}

		if acct.OwnerName != "" {
			printStatus("Owner", "%s", acct.OwnerName)
		}
		if acct.OwnerEmail != "" {
			printStatus("Email", "%s", acct.OwnerEmail)
		}
		if acct.CompanyName != "" {
			printStatus("Company", "%s", acct.CompanyName)
		}
		printStatus("Sites", "%d", acct.SiteCount)

		// Refresh contact metadata into the local config.
		if acct.OwnerEmail != "" || acct.CompanyName != "" {
			if cfg, err := config.LoadUser(); err == nil && cfg != nil {
				cfg.ContactEmail = acct.OwnerEmail
				cfg.CompanyName = acct.CompanyName
				if err := config.SaveUser(*cfg); err != nil {
					printWarning("%v", err)
				}
			}
		}
		maybePrintUpdateNotice(client)
		return nil
	},
}

// maybePrintUpdateNotice surfaces a server-advertised newer client
// version, once per command.
func maybePrintUpdateNotice(client *api.Client) {
	if v := client.UpdateNotice(); v != "" {
		printWarning("BotSee %s is available. Run: botsee update", v)
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect local configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show local config files with the API key redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadUser()
		if err != nil {
			return err
		}
		out := map[string]any{}
		if cfg != nil {
			redacted := *cfg
			if redacted.APIKey != "" {
				redacted.APIKey = "..." + keySuffix(redacted.APIKey)
			}
			out["user"] = redacted
		}
		if ws, err := config.LoadWorkspace(); err == nil && ws != nil {
			out["workspace"] = ws
		}
		if pending, err := config.LoadPendingSignup(); err == nil && pending != nil {
			out["pending_signup"] = map[string]string{"setup_url": pending.SetupURL}
		}
		if len(out) == 0 {
			fmt.Println("No local configuration. Run: botsee signup")
			return nil
		}
		return printJSON(out)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
