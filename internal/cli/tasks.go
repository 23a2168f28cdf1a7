package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s1natex/smart-tasks/internal/tasks"
)

const dueLayout = "2006-01-02"

var errAmbiguousID = errors.New("id prefix matches more than one task")

// resolveID accepts a full id or any unique prefix of one.
func resolveID(store *tasks.Store, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if _, ok := store.Get(arg); ok {
		return arg, nil
	}
	match := ""
	for _, t := range store.Snapshot() {
		if arg != "" && strings.HasPrefix(t.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("%w: %q", errAmbiguousID, arg)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %q", tasks.ErrNotFound, arg)
	}
	return match, nil
}

// lookupTask resolves arg like resolveID and returns the matching task.
func lookupTask(store *tasks.Store, arg string) (tasks.Task, error) {
	id, err := resolveID(store, arg)
	if err != nil {
		return tasks.Task{}, err
	}
	t, ok := store.Get(id)
	if !ok {
		return tasks.Task{}, fmt.Errorf("%w: %q", tasks.ErrNotFound, id)
	}
	return t, nil
}

func parseDue(s string) (*time.Time, error) {
	d, err := time.ParseInLocation(dueLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return nil, fmt.Errorf("due date must be YYYY-MM-DD: %q", s)
	}
	return &d, nil
}

func newListCmd(load loader) *cobra.Command {
	var filter, sort string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := tasks.ParseFilter(filter)
			if err != nil {
				return err
			}
			so, err := tasks.ParseSort(sort)
			if err != nil {
				return err
			}

			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			view := tasks.View(a.store.Snapshot(), f, so)
			fmt.Fprintln(cmd.OutOrStdout(), formatList(view, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, active or completed")
	cmd.Flags().StringVarP(&sort, "sort", "s", "date", "date or priority")
	return cmd
}

func newAddCmd(load loader) *cobra.Command {
	var description, priority, due string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prio, err := tasks.ParsePriority(priority)
			if err != nil {
				return err
			}
			in := tasks.TaskInput{
				Title:       strings.Join(args, " "),
				Description: description,
				Priority:    prio,
			}
			if due != "" {
				if in.DueDate, err = parseDue(due); err != nil {
					return err
				}
			}

			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.store.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTask(t, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	return cmd
}

func newUpdateCmd(load loader) *cobra.Command {
	var title, description, priority, due string
	var clearDue bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a task's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch tasks.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("priority") {
				p := tasks.Priority(strings.ToLower(strings.TrimSpace(priority)))
				patch.Priority = &p
			}
			if flags.Changed("due") {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				patch.DueDate = d
			}
			patch.ClearDueDate = clearDue

			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := resolveID(a.store, args[0])
			if err != nil {
				return err
			}
			t, err := a.store.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTask(t, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newToggleCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>",
		Aliases: []string{"done"},
		Short:   "Flip a task between active and completed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := resolveID(a.store, args[0])
			if err != nil {
				return err
			}
			t, err := a.store.Toggle(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTask(t, time.Now()))
			return nil
		},
	}
}

func newRemoveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := resolveID(a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.store.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", shortID(id))
			return nil
		},
	}
}

func newStatsCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts and completion rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.OutOrStdout(), formatStats(tasks.ComputeStats(a.store.Snapshot())))
			return nil
		},
	}
}
