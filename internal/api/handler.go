package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// Action names the CRUD verb being dispatched; the value appears in the
// failure envelope's action field.
type Action string

// Dispatcher actions.
const (
	ActionGet    Action = "GET"
	ActionPost   Action = "POST"
	ActionPut    Action = "PUT"
	ActionDelete Action = "DELETE"
)

// EntityHandler binds the generic CRUD dispatcher to one entity type.
// Each entity registers a typed implementation; there is no runtime name
// lookup. The dispatcher owns request parsing, pagination, authorization
// ordering and the failure envelope; handlers own everything
// entity-specific.
type EntityHandler interface {
	// Name is the lowercase entity name used in routes and envelopes.
	Name() string

	// Fields is the set of attribute names that may appear as filter
	// query parameters.
	Fields() map[string]bool

	// Reserved lists payload keys rejected on POST/PUT.
	Reserved() []string

	// Get loads one entity by id.
	Get(ctx context.Context, id int) (domain.Entity, error)

	// Filter lists entities for a collection read.
	Filter(ctx context.Context, q store.ListQuery) ([]domain.Entity, error)

	// Decode builds a candidate entity from a request payload.
	Decode(data []byte) (domain.Entity, error)

	// Merge applies a partial-update payload onto a copy of the existing
	// entity.
	Merge(existing domain.Entity, data []byte) (domain.Entity, error)

	// Save persists a new entity, filling in its generated id.
	Save(ctx context.Context, e domain.Entity) error

	// Update persists changes to an existing entity.
	Update(ctx context.Context, e domain.Entity) error

	// Delete removes an entity.
	Delete(ctx context.Context, e domain.Entity) error

	// Authorize answers whether the actor may perform the action on the
	// entity; a nil entity is the class-level check.
	Authorize(ctx context.Context, actor *domain.User, action Action, e domain.Entity) error

	// BeforeSave runs entity-specific side effects on a candidate entity
	// before creation is authorized.
	BeforeSave(ctx context.Context, r *http.Request, actor *domain.User, e domain.Entity) error

	// AfterSave runs entity-specific side effects after a successful
	// creation.
	AfterSave(ctx context.Context, e domain.Entity)

	// Public returns the representation exposed on reads, letting an
	// entity restrict its visible fields.
	Public(e domain.Entity) any

	// Links returns the entity's self link and parent links, either of
	// which may be empty.
	Links(e domain.Entity) (link string, links []string)
}

// noHooks provides default no-op hook implementations for handlers that
// do not need them.
type noHooks struct{}

func (noHooks) BeforeSave(context.Context, *http.Request, *domain.User, domain.Entity) error {
	return nil
}

func (noHooks) AfterSave(context.Context, domain.Entity) {}

// selfPublic exposes entities unmodified on reads.
type selfPublic struct{}

func (selfPublic) Public(e domain.Entity) any { return e }

// fieldSet derives the filterable attribute names of an entity from its
// struct's JSON tags. This is the typed replacement for probing class
// attributes by name: unknown filter keys are rejected against this set
// at request-decoding time.
func fieldSet(v any) map[string]bool {
	fields := make(map[string]bool)
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			fields[name] = true
		}
	}
	return fields
}
