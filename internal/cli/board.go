package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"b"},
	Short:   "Manage boards",
	Long: `Create, list, rename and delete boards.

Examples:
  taskboard board add "Work"
  taskboard board ls
  taskboard board rename Work "Day job"
  taskboard board rm "Day job"`,
}

var boardAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a new board",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBoardAdd,
}

var boardListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List boards",
	RunE:    runBoardList,
}

var boardRenameCmd = &cobra.Command{
	Use:   "rename [board] [title]",
	Short: "Rename a board",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBoardRename,
}

var boardRemoveCmd = &cobra.Command{
	Use:     "rm [board]",
	Aliases: []string{"delete"},
	Short:   "Delete a board and all its tasks",
	Args:    cobra.ExactArgs(1),
	RunE:    runBoardRemove,
}

var boardSync bool

func init() {
	boardCmd.AddCommand(boardAddCmd)
	boardCmd.AddCommand(boardListCmd)
	boardCmd.AddCommand(boardRenameCmd)
	boardCmd.AddCommand(boardRemoveCmd)

	boardCmd.PersistentFlags().BoolVarP(&boardSync, "sync", "s", false, "Sync with server after the change")
}

func runBoardAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	title := strings.Join(args, " ")
	b, ok := a.store.AddBoard(title)
	if !ok {
		return fmt.Errorf("board title must not be blank")
	}

	fmt.Printf("✓ Created board \"%s\" (%s)\n", b.Title, shortID(b.ID))
	a.maybeSync(context.Background(), boardSync)
	return nil
}

func runBoardList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	boards := a.store.Boards()
	if len(boards) == 0 {
		fmt.Println("No boards yet. Add one with: taskboard board add \"Work\"")
		return nil
	}

	fmt.Println("Boards:")
	fmt.Println(strings.Repeat("─", 40))
	for _, b := range boards {
		fmt.Printf("  %-8s  %-20s  %d/%d pending\n", shortID(b.ID), b.Title, b.Pending(), len(b.Tasks))
	}
	return nil
}

func runBoardRename(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := findBoard(a.store.Boards(), args[0])
	if err != nil {
		return err
	}

	title := strings.Join(args[1:], " ")
	if !a.store.EditBoardName(b.ID, title) {
		return fmt.Errorf("board title must not be blank")
	}

	fmt.Printf("✓ Renamed \"%s\" to \"%s\"\n", b.Title, strings.TrimSpace(title))
	a.maybeSync(context.Background(), boardSync)
	return nil
}

func runBoardRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := findBoard(a.store.Boards(), args[0])
	if err != nil {
		return err
	}

	if !a.store.RemoveBoard(b.ID) {
		return fmt.Errorf("failed to delete board: %s", b.Title)
	}

	fmt.Printf("✓ Deleted board \"%s\" and %d task(s)\n", b.Title, len(b.Tasks))
	a.maybeSync(context.Background(), boardSync)
	return nil
}
