package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/model"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Manage tasks",
	Long: `Add, edit, complete and delete tasks on a board.

Examples:
  taskboard task add Work "Write report" --due tomorrow --priority
  taskboard task done 3f2a
  taskboard task edit 3f2a --title "Write the report"
  taskboard task priority 3f2a --off
  taskboard task rm 3f2a`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add [board] [title]",
	Short: "Add a task to a board",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskAdd,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Toggle a task between pending and completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskPriorityCmd = &cobra.Command{
	Use:   "priority [task-id]",
	Short: "Flag or unflag a task as priority",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskPriority,
}

var taskRemoveCmd = &cobra.Command{
	Use:     "rm [task-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskRemove,
}

var (
	taskDue         string
	taskDescription string
	taskPriority    bool
	taskTitle       string
	taskClearDue    bool
	taskPriorityOff bool
	taskSync        bool
)

func init() {
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskPriorityCmd)
	taskCmd.AddCommand(taskRemoveCmd)

	taskCmd.PersistentFlags().BoolVarP(&taskSync, "sync", "s", false, "Sync with server after the change")

	taskAddCmd.Flags().StringVarP(&taskDue, "due", "d", "", "Due date (e.g., 'today', 'tomorrow', '2025-01-15')")
	taskAddCmd.Flags().StringVar(&taskDescription, "desc", "", "Description")
	taskAddCmd.Flags().BoolVarP(&taskPriority, "priority", "p", false, "Flag as priority")

	taskEditCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	taskEditCmd.Flags().StringVar(&taskDescription, "desc", "", "New description")
	taskEditCmd.Flags().StringVarP(&taskDue, "due", "d", "", "New due date")
	taskEditCmd.Flags().BoolVar(&taskClearDue, "clear-due", false, "Remove the due date")

	taskPriorityCmd.Flags().BoolVar(&taskPriorityOff, "off", false, "Remove the priority flag")
}

// parseDue accepts today, tomorrow, YYYY-MM-DD or RFC 3339
func parseDue(s string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", s)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := findBoard(a.store.Boards(), args[0])
	if err != nil {
		return err
	}

	nt := model.NewTask{
		Title:       strings.Join(args[1:], " "),
		Description: taskDescription,
		Priority:    taskPriority,
	}
	if taskDue != "" {
		due, err := parseDue(taskDue, time.Now())
		if err != nil {
			return err
		}
		nt.DueDate = &due
	}

	t, ok := a.store.AddTask(b.ID, nt)
	if !ok {
		return fmt.Errorf("task title must not be blank")
	}

	fmt.Printf("✓ Added to [%s]: \"%s\" (%s)\n", b.Title, t.Title, shortID(t.ID))
	a.maybeSync(context.Background(), taskSync)
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, t, err := findTask(a.store.Boards(), args[0])
	if err != nil {
		return err
	}

	var patch model.TaskPatch
	if cmd.Flags().Changed("title") {
		patch.Title = &taskTitle
	}
	if cmd.Flags().Changed("desc") {
		patch.Description = &taskDescription
	}
	if taskDue != "" {
		due, err := parseDue(taskDue, time.Now())
		if err != nil {
			return err
		}
		patch.DueDate = &due
	}
	patch.ClearDueDate = taskClearDue

	if patch.IsZero() {
		return fmt.Errorf("nothing to change, pass --title, --desc, --due or --clear-due")
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	if !a.store.EditTask(b.ID, t.ID, patch) {
		return fmt.Errorf("failed to update task: %s", t.ID)
	}

	fmt.Printf("✓ Updated: \"%s\"\n", patch.Apply(t).Title)
	a.maybeSync(context.Background(), taskSync)
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, t, err := findTask(a.store.Boards(), args[0])
	if err != nil {
		return err
	}

	if !a.store.ToggleTaskStatus(b.ID, t.ID) {
		return fmt.Errorf("failed to update task: %s", t.ID)
	}

	if t.Done() {
		fmt.Printf("○ Reopened: \"%s\"\n", t.Title)
	} else {
		fmt.Printf("✓ Completed: \"%s\"\n", t.Title)
	}
	a.maybeSync(context.Background(), taskSync)
	return nil
}

func runTaskPriority(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, t, err := findTask(a.store.Boards(), args[0])
	if err != nil {
		return err
	}

	on := !taskPriorityOff
	if !a.store.SetTaskPriority(b.ID, t.ID, on) {
		return fmt.Errorf("failed to update task: %s", t.ID)
	}

	if on {
		fmt.Printf("★ Priority: \"%s\"\n", t.Title)
	} else {
		fmt.Printf("☆ No longer priority: \"%s\"\n", t.Title)
	}
	a.maybeSync(context.Background(), taskSync)
	return nil
}

func runTaskRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, t, err := findTask(a.store.Boards(), args[0])
	if err != nil {
		return err
	}

	if !a.store.RemoveTask(b.ID, t.ID) {
		return fmt.Errorf("failed to delete task: %s", t.ID)
	}

	fmt.Printf("✓ Deleted from [%s]: \"%s\"\n", b.Title, t.Title)
	a.maybeSync(context.Background(), taskSync)
	return nil
}
