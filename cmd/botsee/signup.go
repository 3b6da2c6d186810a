package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RivalSee/botsee-skill/internal/api"
	"github.com/RivalSee/botsee-skill/internal/config"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a BotSee account and save the API key",
	Long: `Create a BotSee account. Prints a browser URL where you complete the
signup, then waits for completion and saves the API key to ~/.botsee/.

If a previous signup was interrupted, re-running resumes the same token.

Examples:
  botsee signup
  botsee signup --email you@example.com --company "Acme Inc"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg, err := config.LoadUser(); err != nil {
			return err
		} else if cfg != nil && cfg.APIKey != "" {
			printSuccess("Already signed up (key ...%s)", keySuffix(cfg.APIKey))
			return nil
		}

		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		company, _ := cmd.Flags().GetString("company")

		client := newAnonClient()

		pending, err := config.LoadPendingSignup()
		if err != nil {
			printWarning("%v", err)
			pending = nil
		}

		if pending == nil {
			start, err := client.StartSignup(cmd.Context(), api.SignupRequest{
				ContactEmail: email,
				ContactName:  name,
				CompanyName:  company,
			})
			if err != nil {
				return err
			}
			pending = &config.PendingSignup{
				SetupToken: start.SetupToken,
				SetupURL:   start.SetupURL,
				StatusURL:  start.StatusURL,
			}
			if err := config.SavePendingSignup(*pending); err != nil {
				return err
			}
			printStep("Complete your signup in the browser:")
			fmt.Println(pending.SetupURL)
		} else {
			printStep("Resuming pending signup")
			fmt.Println(pending.SetupURL)
		}

		return awaitSignup(cmd.Context(), client, pending)
	},
}

func init() {
	signupCmd.Flags().String("email", "", "contact email")
	signupCmd.Flags().String("name", "", "contact name")
	signupCmd.Flags().String("company", "", "company name")
}

// awaitSignup polls the signup status until the browser flow completes,
// then persists the API key and clears the pending marker. Hitting the
// poll timeout keeps the marker so a later run can resume.
func awaitSignup(ctx context.Context, client *api.Client, pending *config.PendingSignup) error {
	printStep("Waiting for signup to complete (checking every %s)...", api.SignupPollInterval)

	poller := &api.Poller{
		Client:   client,
		Timeout:  api.SignupPollTimeout,
		Interval: api.SignupPollInterval,
	}
	path := api.SignupStatusPath(pending.StatusURL, pending.SetupToken)

	body, err := poller.Wait(ctx, path, "status", "completed", "failed", "expired")
	if err != nil {
		var term *api.TerminalStateError
		switch {
		case errors.As(err, &term):
			if rmErr := config.RemovePendingSignup(); rmErr != nil {
				printWarning("%v", rmErr)
			}
			return fmt.Errorf("signup %s. Run: botsee signup", term.Status)
		case errors.Is(err, api.ErrPollTimeout):
			printWarning("Signup not completed yet. Finish it in the browser:")
			fmt.Println(pending.SetupURL)
			return fmt.Errorf("re-run botsee signup to resume")
		default:
			return err
		}
	}

	var status api.SignupStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("decoding signup status: %w", err)
	}
	if status.APIKey == "" {
		return fmt.Errorf("signup completed but no API key was returned")
	}

	if err := config.SaveUser(config.User{
		APIKey:       status.APIKey,
		ContactEmail: status.ContactEmail,
		CompanyName:  status.CompanyName,
	}); err != nil {
		return err
	}
	if err := config.RemovePendingSignup(); err != nil {
		printWarning("%v", err)
	}

	printSuccess("Signup complete. API key saved (ends in %s)", keySuffix(status.APIKey))
	printStep("Next: botsee setup <domain>")
	return nil
}

// keySuffix returns the last four characters of the key for display.
func keySuffix(key string) string {
	if len(key) <= 4 {
		return key
	}
	return key[len(key)-4:]
}
