package domain

import "time"

// Project is a crowdsourcing project owned by exactly one user. The task
// presenter markup lives under Info["task_presenter"]; a project with no
// presenter and no tasks is a draft, one with both is published.
type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	ShortName   string    `json:"short_name"`
	Description string    `json:"description"`
	OwnerID     int       `json:"owner_id"`
	CategoryID  int       `json:"category_id"`
	Hidden      bool      `json:"hidden"`
	Featured    bool      `json:"featured"`
	// AllowAnonymous mirrors the allow_anonymous_contributors column:
	// when false, unauthenticated actors may not submit task runs.
	AllowAnonymous bool      `json:"allow_anonymous_contributors"`
	Webhook        string    `json:"webhook"`
	Info           Info      `json:"info"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`
}

// EntityID implements Entity.
func (p *Project) EntityID() int { return p.ID }

// Validate checks the project's invariants before it is stored.
func (p *Project) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.ShortName == "" {
		return ErrEmptyShortName
	}
	if p.OwnerID == 0 {
		return ErrEmptyOwner
	}
	return nil
}

// HasPresenter reports whether the project carries task presenter markup.
func (p *Project) HasPresenter() bool {
	v, ok := p.Info["task_presenter"]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return !ok || s != ""
}
