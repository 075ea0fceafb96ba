package api

import (
	"context"

	"github.com/crowdlab/crowdlab/internal/authz"
	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// CategoryHandler serves the category entity.
type CategoryHandler struct {
	noHooks
	selfPublic
	categories store.CategoryStore
	policy     authz.CategoryPolicy
	fields     map[string]bool
}

// NewCategoryHandler creates the category entity handler.
func NewCategoryHandler(categories store.CategoryStore) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		fields:     fieldSet(&domain.Category{}),
	}
}

func (h *CategoryHandler) Name() string { return "category" }

func (h *CategoryHandler) Fields() map[string]bool { return h.fields }

func (h *CategoryHandler) Reserved() []string { return []string{"id", "created"} }

func (h *CategoryHandler) Get(ctx context.Context, id int) (domain.Entity, error) {
	return h.categories.GetByID(ctx, id)
}

func (h *CategoryHandler) Filter(ctx context.Context, q store.ListQuery) ([]domain.Entity, error) {
	categories, err := h.categories.Filter(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Entity, len(categories))
	for i, c := range categories {
		items[i] = c
	}
	return items, nil
}

func (h *CategoryHandler) Decode(data []byte) (domain.Entity, error) {
	var category domain.Category
	if err := strictUnmarshal(data, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (h *CategoryHandler) Merge(existing domain.Entity, data []byte) (domain.Entity, error) {
	merged := *existing.(*domain.Category)
	if err := strictUnmarshal(data, &merged); err != nil {
		return nil, err
	}
	merged.ID = existing.EntityID()
	return &merged, nil
}

func (h *CategoryHandler) Save(ctx context.Context, e domain.Entity) error {
	return h.categories.Create(ctx, e.(*domain.Category))
}

func (h *CategoryHandler) Update(ctx context.Context, e domain.Entity) error {
	return h.categories.Update(ctx, e.(*domain.Category))
}

func (h *CategoryHandler) Delete(ctx context.Context, e domain.Entity) error {
	return h.categories.Delete(ctx, e.EntityID())
}

func (h *CategoryHandler) Authorize(ctx context.Context, actor *domain.User, action Action, e domain.Entity) error {
	var category *domain.Category
	if e != nil {
		category = e.(*domain.Category)
	}
	switch action {
	case ActionGet:
		return h.policy.CanRead(ctx, actor, category)
	case ActionPost:
		return h.policy.CanCreate(ctx, actor, category)
	case ActionPut:
		return h.policy.CanUpdate(ctx, actor, category)
	case ActionDelete:
		return h.policy.CanDelete(ctx, actor, category)
	}
	return authz.ErrForbidden
}

func (h *CategoryHandler) Links(e domain.Entity) (string, []string) {
	return selfLink("category", e.EntityID()), nil
}
