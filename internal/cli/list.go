package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/model"
)

var listCmd = &cobra.Command{
	Use:     "list [board]",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks, optionally for a single board.

Examples:
  taskboard list
  taskboard list Work
  taskboard list --done`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var listIncludeDone bool

func init() {
	listCmd.Flags().BoolVar(&listIncludeDone, "done", false, "Include completed tasks")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	boards := a.store.Boards()
	if len(args) == 1 {
		b, err := findBoard(boards, args[0])
		if err != nil {
			return err
		}
		boards = []model.Board{b}
	}

	if len(boards) == 0 {
		fmt.Println("No boards yet. Add one with: taskboard board add \"Work\"")
		return nil
	}

	for _, b := range boards {
		printBoard(os.Stdout, b, listIncludeDone)
	}
	return nil
}

func printBoard(w io.Writer, b model.Board, includeDone bool) {
	fmt.Fprintf(w, "\n📋 %s  %s (%d pending)\n", b.Title, shortID(b.ID), b.Pending())
	fmt.Fprintln(w, strings.Repeat("─", 60))

	n := 0
	for _, t := range b.Tasks {
		if t.Done() && !includeDone {
			continue
		}
		n++
		printTask(w, t)
	}
	if n == 0 {
		fmt.Fprintln(w, "  (no tasks)")
	}
	fmt.Fprintln(w)
}

func printTask(w io.Writer, t model.Task) {
	icon := "[ ]"
	if t.Done() {
		icon = "[x]"
	}

	priority := ""
	if t.Priority {
		priority = "★"
	}

	due := ""
	if t.DueDate != nil {
		due = t.DueDate.Format("Jan 2")
		if t.IsOverdue() && !t.Done() {
			due = "! " + due
		}
	}

	// Truncate title if too long
	title := t.Title
	if len([]rune(title)) > 40 {
		title = string([]rune(title)[:37]) + "..."
	}

	fmt.Fprintf(w, "  %s  %-8s  %-40s  %-8s  %s\n", icon, shortID(t.ID), title, due, priority)
}
