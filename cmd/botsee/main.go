package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is the client release, overridden at build time via
// -ldflags "-X main.version=...". It rides along as SKILL_VER on every
// API request so the server can advertise updates.
var version = "2.0.0"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "botsee",
	Short: "AI-powered competitive intelligence via the BotSee API",
	Long: `BotSee signs you up, registers a site to analyze, and drives the
BotSee API to produce competitive-intelligence reports and blog content.

Typical flow:
  botsee signup                 create an account and get an API key
  botsee setup example.com      register a site and generate research content
  botsee analyze                run a competitive analysis
  botsee content                generate a blog post from the latest analysis`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation shows account status, or a getting-started hint.
		return showStatus(cmd.Context())
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(resultsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
