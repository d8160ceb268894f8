package model

// Board is a named, ordered collection of tasks
type Board struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"nonblank"`
	Tasks []Task `json:"tasks" validate:"dive"`
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	tasks := make([]Task, len(b.Tasks))
	for i, t := range b.Tasks {
		tasks[i] = t.clone()
	}
	b.Tasks = tasks
	return b
}

// Task looks up a task by id
func (b *Board) Task(taskID string) (Task, bool) {
	for _, t := range b.Tasks {
		if t.ID == taskID {
			return t.clone(), true
		}
	}
	return Task{}, false
}

// Pending counts tasks that are not completed
func (b *Board) Pending() int {
	n := 0
	for _, t := range b.Tasks {
		if !t.Done() {
			n++
		}
	}
	return n
}
