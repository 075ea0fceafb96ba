package domain

import "time"

// Category is a classification label for projects.
type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	ShortName   string    `json:"short_name"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// EntityID implements Entity.
func (c *Category) EntityID() int { return c.ID }

// Validate checks the category's invariants before it is stored.
func (c *Category) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if c.ShortName == "" {
		return ErrEmptyShortName
	}
	return nil
}
