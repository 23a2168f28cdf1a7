package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

func newInsightsCmd(load loader) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Ask the model for an analysis of all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.ErrOrStderr(), subtleStyle.Render("Analyzing..."))
			text := a.insightsClient(cmd.Context()).GenerateInsights(cmd.Context(), a.store.Snapshot())
			if !raw {
				text = renderMarkdown(text)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the model's markdown unrendered")
	return cmd
}

func newCategorizeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize",
		Short: "Group task titles into model-chosen categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.ErrOrStderr(), subtleStyle.Render("Categorizing..."))
			cats := a.insightsClient(cmd.Context()).CategorizeTasks(cmd.Context(), a.store.Snapshot())
			fmt.Fprintln(cmd.OutOrStdout(), formatCategories(cats))
			return nil
		},
	}
}

func formatCategories(cats map[string][]string) string {
	names := make([]string, 0, len(cats))
	for name := range cats {
		names = append(names, name)
	}
	slices.Sort(names)

	lines := make([]string, 0, len(cats))
	for _, name := range names {
		lines = append(lines, headingStyle.Render(name)+": "+strings.Join(cats[name], ", "))
	}
	return strings.Join(lines, "\n")
}

func newSuggestTitleCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest-title <description>",
		Short: "Suggest a short title for a task description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := strings.TrimSpace(strings.Join(args, " "))
			if desc == "" {
				return fmt.Errorf("description is required")
			}

			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.OutOrStdout(), a.insightsClient(cmd.Context()).SuggestTaskTitle(cmd.Context(), desc))
			return nil
		},
	}
}

func newEstimateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <id>",
		Short: "Estimate how long a task will take",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := lookupTask(a.store, args[0])
			if err != nil {
				return err
			}
			estimate := a.insightsClient(cmd.Context()).EstimateTaskDuration(cmd.Context(), t)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  ⏱ %s\n", t.Title, estimate)
			return nil
		},
	}
}
