package domain

import (
	"strconv"
	"time"
)

// TaskRun is a single contribution to a task. It is attributed either to
// a registered user (UserID) or to an anonymous contributor (UserIP),
// never both; the attribution is immutable after creation.
type TaskRun struct {
	ID         int       `json:"id"`
	ProjectID  int       `json:"project_id"`
	TaskID     int       `json:"task_id"`
	UserID     *int      `json:"user_id"`
	UserIP     *string   `json:"user_ip"`
	Info       Info      `json:"info"`
	Created    time.Time `json:"created"`
	FinishTime time.Time `json:"finish_time"`
}

// EntityID implements Entity.
func (r *TaskRun) EntityID() int { return r.ID }

// Validate checks the task run's invariants before it is stored.
func (r *TaskRun) Validate() error {
	if r.ProjectID == 0 {
		return ErrEmptyProjectID
	}
	if r.TaskID == 0 {
		return ErrEmptyTaskID
	}
	if r.UserID != nil && r.UserIP != nil {
		return ErrBothUserAndIP
	}
	if r.UserID == nil && r.UserIP == nil {
		return ErrNoAttribution
	}
	return nil
}

// Anonymous reports whether the run was contributed without a registered
// user account.
func (r *TaskRun) Anonymous() bool { return r.UserID == nil }

// ContributorKey returns the identity string used for markers and
// duplicate checks: the user id for registered contributors, the IP for
// anonymous ones.
func (r *TaskRun) ContributorKey() string {
	if r.UserID != nil {
		return strconv.Itoa(*r.UserID)
	}
	if r.UserIP != nil {
		return *r.UserIP
	}
	return ""
}
