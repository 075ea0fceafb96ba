package api

import "fmt"

// selfLink builds the canonical URL of an entity.
func selfLink(entity string, id int) string {
	return fmt.Sprintf("/api/%s/%d", entity, id)
}
