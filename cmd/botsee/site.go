package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RivalSee/botsee-skill/internal/api"
	"github.com/RivalSee/botsee-skill/internal/config"
)

// Server-imposed bounds on the research structure generated by setup.
const (
	typesMin     = 1
	typesMax     = 3
	personasMin  = 1
	personasMax  = 3
	questionsMin = 3
	questionsMax = 10
)

func validateCount(name string, n, min, max int) error {
	if n < min || n > max {
		return fmt.Errorf("--%s must be between %d and %d, got %d", name, min, max, n)
	}
	return nil
}

var setupCmd = &cobra.Command{
	Use:   "setup <domain>",
	Short: "Register a site and generate its research structure",
	Long: `Register a site with BotSee and generate customer types, buyer
personas, and research questions for it. The generated structure drives
every later analysis.

Examples:
  botsee setup example.com
  botsee setup https://example.com --types 2 --personas 2 --questions 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, _ := cmd.Flags().GetInt("types")
		personas, _ := cmd.Flags().GetInt("personas")
		questions, _ := cmd.Flags().GetInt("questions")

		if err := validateCount("types", types, typesMin, typesMax); err != nil {
			return err
		}
		if err := validateCount("personas", personas, personasMin, personasMax); err != nil {
			return err
		}
		if err := validateCount("questions", questions, questionsMin, questionsMax); err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		domain := api.NormalizeDomain(args[0])

		printStep("Registering %s", domain)
		site, err := client.CreateSite(ctx, domain)
		if err != nil {
			return err
		}
		printSuccess("Site registered: %s", site.UUID)

		printStep("Generating %d customer type(s)", types)
		cts, err := client.GenerateCustomerTypes(ctx, site.UUID, types)
		if err != nil {
			return err
		}

		totalPersonas, totalQuestions := 0, 0
		for _, ct := range cts {
			printStep("Generating %d persona(s) for %q", personas, ct.Name)
			ps, err := client.GeneratePersonas(ctx, ct.UUID, personas)
			if err != nil {
				return err
			}
			totalPersonas += len(ps)

			for _, p := range ps {
				printStep("Generating %d question(s) for %q", questions, p.Name)
				qs, err := client.GenerateQuestions(ctx, p.UUID, questions)
				if err != nil {
					return err
				}
				totalQuestions += len(qs)
			}
		}

		cfg, err := config.LoadUser()
		if err != nil {
			return err
		}
		if cfg == nil {
			cfg = &config.User{}
		}
		cfg.SiteUUID = site.UUID
		if err := config.SaveUser(*cfg); err != nil {
			return err
		}
		if err := config.SaveWorkspace(config.Workspace{
			Domain:              domain,
			Types:               types,
			PersonasPerType:     personas,
			QuestionsPerPersona: questions,
		}); err != nil {
			return err
		}

		printSuccess("Setup complete: %d types, %d personas, %d questions",
			len(cts), totalPersonas, totalQuestions)

		if usage, err := client.Usage(ctx); err == nil {
			printStatus("Credits", "%d remaining", usage.Balance)
		}
		maybePrintUpdateNotice(client)
		printStep("Next: botsee analyze")
		return nil
	},
}

func init() {
	setupCmd.Flags().Int("types", typesMax, "customer types to generate (1-3)")
	setupCmd.Flags().Int("personas", personasMax, "personas per customer type (1-3)")
	setupCmd.Flags().Int("questions", 5, "questions per persona (3-10)")
}

// --- sites ---

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage registered sites",
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		sites, err := client.ListSites(cmd.Context())
		if err != nil {
			return err
		}
		if len(sites) == 0 {
			fmt.Println("No sites registered. Run: botsee setup <domain>")
			return nil
		}

		active := ""
		if cfg, err := config.LoadUser(); err == nil && cfg != nil {
			active = cfg.SiteUUID
		}
		for _, s := range sites {
			marker := " "
			if s.UUID == active {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, s.UUID, s.URL)
		}
		return nil
	},
}

var sitesGetCmd = &cobra.Command{
	Use:   "get <uuid>",
	Short: "Show one site as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		site, err := client.GetSite(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(site)
	},
}

var sitesArchiveCmd = &cobra.Command{
	Use:   "archive <uuid>",
	Short: "Archive a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.ArchiveSite(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Site %s archived", id)

		if cfg, err := config.LoadUser(); err == nil && cfg != nil && cfg.SiteUUID == id {
			cfg.SiteUUID = ""
			if err := config.SaveUser(*cfg); err != nil {
				printWarning("%v", err)
			}
		}
		return nil
	},
}

var sitesUseCmd = &cobra.Command{
	Use:   "use <uuid>",
	Short: "Select the active site for analyze and content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		site, err := client.GetSite(cmd.Context(), id)
		if err != nil {
			return err
		}

		cfg, err := config.RequireUser()
		if err != nil {
			return err
		}
		cfg.SiteUUID = site.UUID
		if err := config.SaveUser(*cfg); err != nil {
			return err
		}
		printSuccess("Active site: %s (%s)", site.URL, site.UUID)
		return nil
	},
}

func init() {
	sitesCmd.AddCommand(sitesListCmd)
	sitesCmd.AddCommand(sitesGetCmd)
	sitesCmd.AddCommand(sitesArchiveCmd)
	sitesCmd.AddCommand(sitesUseCmd)
}
