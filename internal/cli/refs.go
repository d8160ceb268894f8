package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/taskboard/internal/model"
)

// findBoard resolves a board by id, id prefix or case-insensitive title
func findBoard(boards []model.Board, ref string) (model.Board, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Board{}, fmt.Errorf("board required")
	}

	var matches []model.Board
	for _, b := range boards {
		if b.ID == ref {
			return b, nil
		}
		if strings.HasPrefix(b.ID, ref) || strings.EqualFold(b.Title, ref) {
			matches = append(matches, b)
		}
	}

	switch len(matches) {
	case 0:
		return model.Board{}, fmt.Errorf("board not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Board{}, fmt.Errorf("board %q is ambiguous (%d matches), use more of the id", ref, len(matches))
	}
}

// findTask resolves a task by id or id prefix across all boards
func findTask(boards []model.Board, ref string) (model.Board, model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Board{}, model.Task{}, fmt.Errorf("task required")
	}

	type hit struct {
		board model.Board
		task  model.Task
	}
	var matches []hit
	for _, b := range boards {
		for _, t := range b.Tasks {
			if t.ID == ref {
				return b, t, nil
			}
			if strings.HasPrefix(t.ID, ref) {
				matches = append(matches, hit{b, t})
			}
		}
	}

	switch len(matches) {
	case 0:
		return model.Board{}, model.Task{}, fmt.Errorf("task not found: %s", ref)
	case 1:
		return matches[0].board, matches[0].task, nil
	default:
		return model.Board{}, model.Task{}, fmt.Errorf("task %q is ambiguous (%d matches), use more of the id", ref, len(matches))
	}
}

// shortID returns the first 8 characters of an id
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
