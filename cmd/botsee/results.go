package main

import (
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Fetch raw results of a completed analysis",
}

var resultsCompetitorsCmd = &cobra.Command{
	Use:   "competitors <analysis-uuid>",
	Short: "Competitor report as JSON",
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
		report, err := client.Competitors(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var resultsKeywordsCmd = &cobra.Command{
	Use:   "keywords <analysis-uuid>",
	Short: "Keyword frequencies as JSON",
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
		keywords, err := client.Keywords(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(keywords)
	},
}

var resultsSourcesCmd = &cobra.Command{
	Use:   "sources <analysis-uuid>",
	Short: "Cited sources as JSON",
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
		sources, err := client.Sources(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(sources)
	},
}

var resultsResponsesCmd = &cobra.Command{
	Use:   "responses <analysis-uuid>",
	Short: "Raw model responses as JSON",
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
		responses, err := client.Responses(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(responses)
	},
}

func init() {
	resultsCmd.AddCommand(resultsCompetitorsCmd)
	resultsCmd.AddCommand(resultsKeywordsCmd)
	resultsCmd.AddCommand(resultsSourcesCmd)
	resultsCmd.AddCommand(resultsResponsesCmd)
}
