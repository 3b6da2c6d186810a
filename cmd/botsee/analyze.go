package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/RivalSee/botsee-skill/internal/api"
	"github.com/RivalSee/botsee-skill/internal/history"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [site-uuid]",
	Short: "Run a competitive analysis on the active site",
	Long: `Start a competitive analysis for the active site (or an explicitly
given site UUID) and wait for it to finish, then print the competitor,
keyword, and source reports.

Checks start one second apart and back off exponentially to thirty
seconds while the analysis runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var siteUUID string
		if len(args) == 1 {
			var err error
			if siteUUID, err = parseUUID(args[0]); err != nil {
				return err
			}
		} else {
			cfg, err := requireSite()
			if err != nil {
				return err
			}
			siteUUID = cfg.SiteUUID
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		printStep("Starting analysis for site %s", siteUUID)
		analysis, err := client.StartAnalysis(ctx, siteUUID)
		if err != nil {
			return err
		}
		printSuccess("Analysis started: %s", analysis.UUID)

		store := openHistory()
		if store != nil {
			defer store.Close()
			if err := store.RecordAnalysis(history.AnalysisRecord{
				UUID:      analysis.UUID,
				SiteUUID:  siteUUID,
				Status:    "pending",
				StartedAt: time.Now().UTC(),
			}); err != nil {
				printWarning("history: %v", err)
			}
		}

		if err := awaitAnalysis(ctx, client, analysis.UUID); err != nil {
			if store != nil {
				if status, ok := historyStatusForError(err); ok {
					if hErr := store.SetAnalysisStatus(analysis.UUID, status); hErr != nil {
						printWarning("history: %v", hErr)
					}
				}
			}
			return err
		}
		if store != nil {
			if err := store.SetAnalysisStatus(analysis.UUID, "completed"); err != nil {
				printWarning("history: %v", err)
			}
		}
		printSuccess("Analysis complete")

		if err := renderReport(ctx, client, analysis.UUID); err != nil {
			return err
		}
		if usage, err := client.Usage(ctx); err == nil {
			printStatus("Credits", "%d remaining", usage.Balance)
		}
		maybePrintUpdateNotice(client)
		return nil
	},
}

// awaitAnalysis polls the analysis until it completes, with exponential
// backoff between checks.
func awaitAnalysis(ctx context.Context, client *api.Client, analysisUUID string) error {
	printStep("Waiting for analysis to complete (up to %s)...", api.AnalysisPollTimeout)

	poller := &api.Poller{
		Client:  client,
		Timeout: api.AnalysisPollTimeout,
		Backoff: &api.Backoff{Initial: time.Second, Max: 30 * time.Second},
	}
	_, err := poller.Wait(ctx, "/analysis/"+analysisUUID, "analysis.status", "completed", "failed")
	if err != nil {
		var term *api.TerminalStateError
		switch {
		case errors.As(err, &term):
			return fmt.Errorf("analysis %s: %w", term.Status, err)
		case errors.Is(err, api.ErrPollTimeout):
			return fmt.Errorf("%w; the analysis may still be running, check later with: botsee results competitors %s",
				err, analysisUUID)
		default:
			return err
		}
	}
	return nil
}

// historyStatusForError maps a polling failure to the status recorded in
// the local ledger. Only server-reported terminal states are recorded; a
// timed-out poll leaves the ledger at pending because the run is still in
// flight server-side.
func historyStatusForError(err error) (string, bool) {
	var term *api.TerminalStateError
	if errors.As(err, &term) {
		return term.Status, true
	}
	return "", false
}

// renderReport prints the human-readable summary of a completed analysis:
// top competitors per customer type, top keywords, and top cited sources.
func renderReport(ctx context.Context, client *api.Client, analysisUUID string) error {
	report, err := client.Competitors(ctx, analysisUUID)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(colorize(colorBold, "Competitors"))
	for _, group := range report.ByCustomerType {
		fmt.Printf("\n  %s\n", group.CustomerTypeName)
		top := group.Competitors
		if len(top) > 5 {
			top = top[:5]
		}
		for i, comp := range top {
			fmt.Printf("    %d. %-30s %5.1f%% of responses (%d mentions)\n",
				i+1, truncate(comp.Name, 30), comp.AppearancePercentage, comp.Mentions)
		}
	}
	fmt.Printf("\n  %d unique competitors across %d responses\n",
		report.OverallSummary.TotalUniqueCompetitors,
		report.OverallSummary.TotalResponsesAnalyzed)

	keywords, err := client.Keywords(ctx, analysisUUID)
	if err != nil {
		return err
	}
	sort.Slice(keywords, func(i, j int) bool { return keywords[i].Frequency > keywords[j].Frequency })
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	fmt.Println()
	fmt.Println(colorize(colorBold, "Top keywords"))
	for _, kw := range keywords {
		fmt.Printf("    %-40s ×%d\n", truncate(kw.Keyword, 40), kw.Frequency)
	}

	sources, err := client.Sources(ctx, analysisUUID)
	if err != nil {
		return err
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Mentions > sources[j].Mentions })
	if len(sources) > 10 {
		sources = sources[:10]
	}
	fmt.Println()
	fmt.Println(colorize(colorBold, "Top cited sources"))
	for _, src := range sources {
		mark := " "
		if src.OwnCompanyMentioned {
			mark = "*"
		}
		fmt.Printf("  %s %-60s ×%d\n", mark, truncate(src.URL, 60), src.Mentions)
	}
	fmt.Println()
	return nil
}

// --- content ---

var contentCmd = &cobra.Command{
	Use:   "content [analysis-uuid]",
	Short: "Generate a blog post from an analysis",
	Long: `Generate a blog post from a completed analysis and save it to a
timestamped markdown file in the working directory. Without an argument
the most recent completed analysis for the active site is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var analysisUUID string
		if len(args) == 1 {
			if analysisUUID, err = parseUUID(args[0]); err != nil {
				return err
			}
		} else {
			cfg, err := requireSite()
			if err != nil {
				return err
			}
			analysisUUID, err = latestCompletedAnalysis(ctx, client, cfg.SiteUUID)
			if err != nil {
				return err
			}
		}

		printStep("Generating content from analysis %s", analysisUUID)
		result, err := client.GenerateContent(ctx, analysisUUID)
		if err != nil {
			return err
		}

		fmt.Println(result.Content)

		filename := fmt.Sprintf("botsee-%s.md", time.Now().Format("20060102-150405"))
		if err := os.WriteFile(filename, []byte(result.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", filename, err)
		}
		printSuccess("Content saved to %s (%d credits used)", filename, result.CreditsUsed)

		if store := openHistory(); store != nil {
			defer store.Close()
			if err := store.RecordContent(history.ContentRecord{
				AnalysisUUID: analysisUUID,
				Filename:     filename,
				CreditsUsed:  result.CreditsUsed,
				CreatedAt:    time.Now().UTC(),
			}); err != nil {
				printWarning("history: %v", err)
			}
		}

		if usage, err := client.Usage(ctx); err == nil {
			printStatus("Credits", "%d remaining", usage.Balance)
		}
		maybePrintUpdateNotice(client)
		return nil
	},
}

func latestCompletedAnalysis(ctx context.Context, client *api.Client, siteUUID string) (string, error) {
	analyses, err := client.ListAnalyses(ctx, siteUUID, 10)
	if err != nil {
		return "", err
	}
	for _, a := range analyses {
		if a.Status == "completed" {
			return a.UUID, nil
		}
	}
	return "", fmt.Errorf("no completed analysis for this site. Run: botsee analyze")
}
