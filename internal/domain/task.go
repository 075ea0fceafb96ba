package domain

import "time"

// Task states. A task flips to completed once its run count reaches
// NAnswers; it never goes back.
const (
	TaskStateOngoing   = "ongoing"
	TaskStateCompleted = "completed"
)

// DefaultNAnswers is the target answer count applied when a task is
// created without an explicit n_answers.
const DefaultNAnswers = 30

// Task is a unit of work inside a project.
type Task struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id"`
	State     string    `json:"state"`
	Quorum    int       `json:"quorum"`
	NAnswers  int       `json:"n_answers"`
	Priority  float64   `json:"priority_0"`
	Info      Info      `json:"info"`
	Created   time.Time `json:"created"`
}

// EntityID implements Entity.
func (t *Task) EntityID() int { return t.ID }

// Validate checks the task's invariants before it is stored.
func (t *Task) Validate() error {
	if t.ProjectID == 0 {
		return ErrEmptyProjectID
	}
	if t.State != TaskStateOngoing && t.State != TaskStateCompleted {
		return ErrInvalidTaskState
	}
	if t.NAnswers <= 0 {
		return ErrInvalidNAnswers
	}
	return nil
}
