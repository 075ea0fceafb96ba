package domain

import "errors"

// Common validation errors
var (
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrEmptyShortName    = errors.New("short name cannot be empty")
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrEmptyOwner        = errors.New("project owner cannot be empty")
	ErrEmptyProjectID    = errors.New("project ID cannot be empty")
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrInvalidTaskState  = errors.New("task state must be ongoing or completed")
	ErrInvalidNAnswers   = errors.New("n_answers must be greater than zero")
	ErrBothUserAndIP     = errors.New("task run cannot carry both user_id and user_ip")
	ErrNoAttribution     = errors.New("task run must carry either user_id or user_ip")
	ErrEmptyPasswordHash = errors.New("password hash cannot be empty")
)
