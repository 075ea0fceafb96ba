package domain

// Entity is implemented by every API-exposed domain type. IDs are
// database-generated serial integers; a zero ID marks an unsaved entity.
type Entity interface {
	EntityID() int
}
