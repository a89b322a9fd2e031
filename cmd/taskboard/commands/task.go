package commands

import (
	"github.com/spf13/cobra"

	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/printer"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Create, list, edit and delete tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(),
		newTaskListCmd(),
		newTaskShowCmd(),
		newTaskEditCmd(),
		newTaskRmCmd(),
		newTaskAssignCmd(),
	)
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var title, description, due, priority, status, assignee string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task as the signed-in user",
		Example: `  taskboard task add --title "Fix login bug" --description "Users can't sign in" \
      --due 2025-03-20 --priority high --assignee jane@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			in := model.NewTask{
				Title:       title,
				Description: description,
				DueDate:     due,
				Priority:    model.Priority(priority),
				Status:      model.Status(status),
			}
			if assignee != "" {
				id, err := a.resolvePrincipal(assignee)
				if err != nil {
					return err
				}
				in.AssignedTo = &id
			}

			t, err := a.tasks.CreateTask(ctx, in)
			if err != nil {
				return fail("Cannot create task", err)
			}
			printer.Success("Created task %s: %s\n", t.ID, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityMedium), "high, medium or low")
	cmd.Flags().StringVarP(&status, "status", "s", string(model.StatusTodo), "todo, in-progress or done")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Assignee ID or email")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		filter   model.TaskFilter
		status   string
		priority string
		assignee string
		creator  string
		mine     bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally filtered",
		Long: `List tasks. Every filter given must match; --search matches title or
description, case-insensitively.`,
		Example: `  taskboard task list --status todo --priority high
  taskboard task list --mine
  taskboard task list --search docs --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			filter.Status = model.Status(status)
			filter.Priority = model.Priority(priority)
			if assignee != "" {
				if filter.AssignedTo, err = a.resolvePrincipal(assignee); err != nil {
					return err
				}
			}
			if creator != "" {
				if filter.CreatedBy, err = a.resolvePrincipal(creator); err != nil {
					return err
				}
			}
			if mine {
				p, err := a.session()
				if err != nil {
					return err
				}
				filter.AssignedTo = p.ID
			}

			tasks := a.tasks.QueryTasks(filter)
			if asJSON {
				return printer.FormatJSON(printer.Out, tasks)
			}
			printer.FormatTasks(printer.Out, tasks, a.name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Only this status")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Only this priority")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Only tasks assigned to this ID or email")
	cmd.Flags().StringVar(&creator, "creator", "", "Only tasks created by this ID or email")
	cmd.Flags().StringVar(&filter.DueDate, "due", "", "Only tasks due on this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&filter.Search, "search", "q", "", "Text in title or description")
	cmd.Flags().BoolVarP(&mine, "mine", "m", false, "Only tasks assigned to you")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newTaskShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show TASK_ID",
		Short: "Show one task in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.tasks.GetTask(args[0])
			if err != nil {
				return fail("Cannot show task", err)
			}
			if asJSON {
				return printer.FormatJSON(printer.Out, t)
			}
			printer.FormatTask(printer.Out, *t, a.name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newTaskEditCmd() *cobra.Command {
	var (
		title, description, due, priority, status, assignee string
		unassign                                            bool
	)

	cmd := &cobra.Command{
		Use:   "edit TASK_ID",
		Short: "Change fields of a task",
		Long: `Change fields of a task. Only the flags you pass are changed; the rest of
the task stays as it is.`,
		Example: `  taskboard task edit 5 --status done
  taskboard task edit 5 --assignee bob@example.com
  taskboard task edit 5 --unassign`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			flags := cmd.Flags()
			var patch model.TaskPatch
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("due") {
				patch.DueDate = &due
			}
			if flags.Changed("priority") {
				p := model.Priority(priority)
				patch.Priority = &p
			}
			if flags.Changed("status") {
				s := model.Status(status)
				patch.Status = &s
			}
			switch {
			case unassign && flags.Changed("assignee"):
				return printer.Error("Conflicting flags", "--assignee and --unassign can't be used together.", nil)
			case unassign:
				none := ""
				patch.AssignedTo = &none
			case flags.Changed("assignee"):
				id, err := a.resolvePrincipal(assignee)
				if err != nil {
					return err
				}
				patch.AssignedTo = &id
			}

			if patch.Empty() {
				printer.Warning("Nothing to change; pass at least one field flag\n")
				return nil
			}

			t, err := a.tasks.UpdateTask(ctx, args[0], patch)
			if err != nil {
				return fail("Cannot update task", err)
			}
			printer.Success("Updated task %s: %s\n", t.ID, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "high, medium or low")
	cmd.Flags().StringVarP(&status, "status", "s", "", "todo, in-progress or done")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "New assignee ID or email")
	cmd.Flags().BoolVar(&unassign, "unassign", false, "Remove the assignee")
	return cmd
}

func newTaskRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm TASK_ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its notifications",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.tasks.GetTask(args[0]); err != nil {
				printer.Warning("No task %s; nothing deleted\n", args[0])
				return nil
			}
			if err := a.tasks.DeleteTask(ctx, args[0]); err != nil {
				return fail("Cannot delete task", err)
			}
			printer.Success("Deleted task %s\n", args[0])
			return nil
		},
	}
}

func newTaskAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign TASK_ID USER",
		Short: "Assign a task to a user (ID or email)",
		Long: `Assign a task to a user given by roster ID or email. The assignee gets a
notification. Use "none" as USER to leave the task unassigned.`,
		Example: `  taskboard task assign 3 alice@example.com
  taskboard task assign 3 none`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			userID := ""
			if args[1] != "none" {
				if userID, err = a.resolvePrincipal(args[1]); err != nil {
					return err
				}
			}

			t, err := a.tasks.AssignTask(ctx, args[0], userID)
			if err != nil {
				return fail("Cannot assign task", err)
			}
			if userID == "" {
				printer.Success("Task %s is now unassigned\n", t.ID)
				return nil
			}
			printer.Success("Assigned %q to %s\n", t.Title, a.name(userID))
			return nil
		},
	}
}
