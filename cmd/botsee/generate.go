package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// parseUUID validates a UUID argument before it hits the API, so typos
// fail fast with a usable message instead of a server 404.
func parseUUID(arg string) (string, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid UUID", arg)
	}
	return id.String(), nil
}

// siteUUIDFlag resolves --site-uuid, falling back to the active site.
func siteUUIDFlag(cmd *cobra.Command) (string, error) {
	if v, _ := cmd.Flags().GetString("site-uuid"); v != "" {
		return parseUUID(v)
	}
	cfg, err := requireSite()
	if err != nil {
		return "", err
	}
	return cfg.SiteUUID, nil
}

// updateFields collects --name/--description into a request body, erroring
// when neither is set.
func updateFields(cmd *cobra.Command) (map[string]string, error) {
	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	fields := map[string]string{}
	if name != "" {
		fields["name"] = name
	}
	if description != "" {
		fields["description"] = description
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("nothing to update: pass --name or --description")
	}
	return fields, nil
}

// --- customer types ---

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Manage customer types",
}

var typesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customer types for a site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		siteUUID, err := siteUUIDFlag(cmd)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		cts, err := client.ListCustomerTypes(cmd.Context(), siteUUID)
		if err != nil {
			return err
		}
		for _, ct := range cts {
			fmt.Printf("%s  %-30s %s\n", ct.UUID, truncate(ct.Name, 30), truncate(ct.Description, 50))
		}
		return nil
	},
}

var typesGetCmd = &cobra.Command{
	Use:   "get <uuid>",
	Short: "Show one customer type as JSON",
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
		ct, err := client.GetCustomerType(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(ct)
	},
}

var typesCreateCmd = &cobra.Command{
	Use:   "create <site-uuid>",
	Short: "Create a customer type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		siteUUID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return fmt.Errorf("--name is required")
		}
		description, _ := cmd.Flags().GetString("description")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ct, err := client.CreateCustomerType(cmd.Context(), siteUUID, name, description)
		if err != nil {
			return err
		}
		printSuccess("Customer type created: %s", ct.UUID)
		return nil
	},
}

var typesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate customer types for a site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		siteUUID, err := siteUUIDFlag(cmd)
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")
		if err := validateCount("count", count, typesMin, typesMax); err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		cts, err := client.GenerateCustomerTypes(cmd.Context(), siteUUID, count)
		if err != nil {
			return err
		}
		for _, ct := range cts {
			fmt.Printf("%s  %s\n", ct.UUID, ct.Name)
		}
		printSuccess("Generated %d customer type(s)", len(cts))
		return nil
	},
}

var typesUpdateCmd = &cobra.Command{
	Use:   "update <uuid>",
	Short: "Update a customer type's name or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		fields, err := updateFields(cmd)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.UpdateCustomerType(cmd.Context(), id, fields); err != nil {
			return err
		}
		printSuccess("Customer type updated")
		return nil
	},
}

var typesArchiveCmd = &cobra.Command{
	Use:   "archive <uuid>",
	Short: "Archive a customer type",
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
		if err := client.ArchiveCustomerType(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Customer type archived")
		return nil
	},
}

// --- personas ---

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Manage buyer personas",
}

var personasListCmd = &cobra.Command{
	Use:   "list <type-uuid>",
	Short: "List personas for a customer type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeUUID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ps, err := client.ListPersonas(cmd.Context(), typeUUID)
		if err != nil {
			return err
		}
		for _, p := range ps {
			fmt.Printf("%s  %-30s %s\n", p.UUID, truncate(p.Name, 30), truncate(p.Description, 50))
		}
		return nil
	},
}

var personasGetCmd = &cobra.Command{
	Use:   "get <uuid>",
	Short: "Show one persona as JSON",
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
		p, err := client.GetPersona(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

var personasCreateCmd = &cobra.Command{
	Use:   "create <type-uuid>",
	Short: "Create a persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeUUID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return fmt.Errorf("--name is required")
		}
		description, _ := cmd.Flags().GetString("description")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		p, err := client.CreatePersona(cmd.Context(), typeUUID, name, description)
		if err != nil {
			return err
		}
		printSuccess("Persona created: %s", p.UUID)
		return nil
	},
}

var personasGenerateCmd = &cobra.Command{
	Use:   "generate <type-uuid>",
	Short: "Generate personas for a customer type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeUUID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")
		if err := validateCount("count", count, personasMin, personasMax); err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ps, err := client.GeneratePersonas(cmd.Context(), typeUUID, count)
		if err != nil {
			return err
		}
		for _, p := range ps {
			fmt.Printf("%s  %s\n", p.UUID, p.Name)
		}
		printSuccess("Generated %d persona(s)", len(ps))
		return nil
	},
}

var personasUpdateCmd = &cobra.Command{
	Use:   "update <uuid>",
	Short: "Update a persona's name or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		fields, err := updateFields(cmd)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.UpdatePersona(cmd.Context(), id, fields); err != nil {
			return err
		}
		printSuccess("Persona updated")
		return nil
	},
}

var personasArchiveCmd = &cobra.Command{
	Use:   "archive <uuid>",
	Short: "Archive a persona",
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
		if err := client.ArchivePersona(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Persona archived")
		return nil
	},
}

// --- questions ---

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Manage research questions",
}

var questionsListCmd = &cobra.Command{
	Use:   "list <persona-uuid>",
	Short: "List questions for a persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaUUID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		qs, err := client.ListQuestions(cmd.Context(), personaUUID)
		if err != nil {
			return err
		}
		for _, q := range qs {
			fmt.Printf("%s  %s\n", q.UUID, truncate(q.Text, 80))
		}
		return nil
	},
}

var questionsGetCmd = &cobra.Command{
	Use:   "get <uuid>",
	Short: "Show one question with its latest results as JSON",
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
		q, err := client.GetQuestion(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(q)
	},
}

var questionsCreateCmd = &cobra.Command{
	Use:   "create <persona-uuid>",
	Short: "Create a question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaUUID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		text, _ := cmd.Flags().GetString("text")
		if text == "" {
			return fmt.Errorf("--text is required")
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		q, err := client.CreateQuestion(cmd.Context(), personaUUID, text)
		if err != nil {
			return err
		}
		printSuccess("Question created: %s", q.UUID)
		return nil
	},
}

var questionsGenerateCmd = &cobra.Command{
	Use:   "generate <persona-uuid>",
	Short: "Generate questions for a persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaUUID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")
		if err := validateCount("count", count, questionsMin, questionsMax); err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		qs, err := client.GenerateQuestions(cmd.Context(), personaUUID, count)
		if err != nil {
			return err
		}
		for _, q := range qs {
			fmt.Printf("%s  %s\n", q.UUID, truncate(q.Text, 80))
		}
		printSuccess("Generated %d question(s)", len(qs))
		return nil
	},
}

var questionsUpdateCmd = &cobra.Command{
	Use:   "update <uuid>",
	Short: "Replace a question's text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		text, _ := cmd.Flags().GetString("text")
		if text == "" {
			return fmt.Errorf("--text is required")
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.UpdateQuestion(cmd.Context(), id, text); err != nil {
			return err
		}
		printSuccess("Question updated")
		return nil
	},
}

var questionsDeleteCmd = &cobra.Command{
	Use:   "delete <uuid>",
	Short: "Delete a question",
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
		if err := client.DeleteQuestion(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Question deleted")
		return nil
	},
}

func init() {
	typesListCmd.Flags().String("site-uuid", "", "site UUID (defaults to the active site)")
	typesCreateCmd.Flags().String("name", "", "customer type name")
	typesCreateCmd.Flags().String("description", "", "customer type description")
	typesGenerateCmd.Flags().String("site-uuid", "", "site UUID (defaults to the active site)")
	typesGenerateCmd.Flags().Int("count", typesMax, "customer types to generate (1-3)")
	typesUpdateCmd.Flags().String("name", "", "new name")
	typesUpdateCmd.Flags().String("description", "", "new description")
	typesCmd.AddCommand(typesListCmd, typesGetCmd, typesCreateCmd, typesGenerateCmd, typesUpdateCmd, typesArchiveCmd)

	personasCreateCmd.Flags().String("name", "", "persona name")
	personasCreateCmd.Flags().String("description", "", "persona description")
	personasGenerateCmd.Flags().Int("count", personasMax, "personas to generate (1-3)")
	personasUpdateCmd.Flags().String("name", "", "new name")
	personasUpdateCmd.Flags().String("description", "", "new description")
	personasCmd.AddCommand(personasListCmd, personasGetCmd, personasCreateCmd, personasGenerateCmd, personasUpdateCmd, personasArchiveCmd)

	questionsCreateCmd.Flags().String("text", "", "question text")
	questionsGenerateCmd.Flags().Int("count", 5, "questions to generate (3-10)")
	questionsUpdateCmd.Flags().String("text", "", "new question text")
	questionsCmd.AddCommand(questionsListCmd, questionsGetCmd, questionsCreateCmd, questionsGenerateCmd, questionsUpdateCmd, questionsDeleteCmd)
}
