package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/crowdlab/crowdlab/internal/authz"
	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// PasswordHasher hashes registration passwords before storage.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// UserHandler serves the user entity. Creation is open registration;
// reads expose only the public account fields; accounts are never
// deleted.
type UserHandler struct {
	users  store.UserStore
	hasher PasswordHasher
	policy authz.UserPolicy
	fields map[string]bool
}

// NewUserHandler creates the user entity handler.
func NewUserHandler(users store.UserStore, hasher PasswordHasher) *UserHandler {
	fields := fieldSet(&domain.User{})
	// The API key is a credential, not a filterable attribute.
	delete(fields, "api_key")
	return &UserHandler{
		users:  users,
		hasher: hasher,
		fields: fields,
	}
}

func (h *UserHandler) Name() string { return "user" }

func (h *UserHandler) Fields() map[string]bool { return h.fields }

func (h *UserHandler) Reserved() []string { return []string{"id", "created", "api_key"} }

func (h *UserHandler) Get(ctx context.Context, id int) (domain.Entity, error) {
	return h.users.GetByID(ctx, id)
}

func (h *UserHandler) Filter(ctx context.Context, q store.ListQuery) ([]domain.Entity, error) {
	users, err := h.users.Filter(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Entity, len(users))
	for i, u := range users {
		items[i] = u
	}
	return items, nil
}

// registration is the accepted shape of a user creation payload.
type registration struct {
	Name     string `json:"name"`
	Fullname string `json:"fullname"`
	Email    string `json:"email_addr"`
	Password string `json:"password"`
	Locale   string `json:"locale"`
}

func (h *UserHandler) Decode(data []byte) (domain.Entity, error) {
	var reg registration
	if err := strictUnmarshal(data, &reg); err != nil {
		return nil, err
	}

	user := domain.NewUser(reg.Name, reg.Fullname, reg.Email)
	if reg.Locale != "" {
		user.Locale = reg.Locale
	}
	if reg.Password == "" {
		return nil, errValueError("password is required")
	}
	hash, err := h.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = hash
	return user, nil
}

// Merge applies the mutable profile fields; credentials and identity are
// not changed through the generic update path.
func (h *UserHandler) Merge(existing domain.Entity, data []byte) (domain.Entity, error) {
	merged := *existing.(*domain.User)
	var patch struct {
		Name     *string `json:"name"`
		Fullname *string `json:"fullname"`
		Email    *string `json:"email_addr"`
		Locale   *string `json:"locale"`
	}
	if err := strictUnmarshal(data, &patch); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Fullname != nil {
		merged.Fullname = *patch.Fullname
	}
	if patch.Email != nil {
		merged.Email = *patch.Email
	}
	if patch.Locale != nil {
		merged.Locale = *patch.Locale
	}
	return &merged, nil
}

func (h *UserHandler) Save(ctx context.Context, e domain.Entity) error {
	return h.users.Create(ctx, e.(*domain.User))
}

func (h *UserHandler) Update(ctx context.Context, e domain.Entity) error {
	return h.users.Update(ctx, e.(*domain.User))
}

func (h *UserHandler) Delete(context.Context, domain.Entity) error {
	return fmt.Errorf("%w: user accounts cannot be deleted", store.ErrNotSupported)
}

func (h *UserHandler) Authorize(ctx context.Context, actor *domain.User, action Action, e domain.Entity) error {
	var user *domain.User
	if e != nil {
		user = e.(*domain.User)
	}
	switch action {
	case ActionGet:
		return h.policy.CanRead(ctx, actor, user)
	case ActionPost:
		return h.policy.CanCreate(ctx, actor, user)
	case ActionPut:
		return h.policy.CanUpdate(ctx, actor, user)
	case ActionDelete:
		return fmt.Errorf("%w: user accounts cannot be deleted", store.ErrNotSupported)
	}
	return authz.ErrForbidden
}

func (h *UserHandler) BeforeSave(context.Context, *http.Request, *domain.User, domain.Entity) error {
	return nil
}

func (h *UserHandler) AfterSave(context.Context, domain.Entity) {}

// publicUser is the account view exposed on reads. Email, admin flag and
// credentials stay private.
type publicUser struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Fullname string    `json:"fullname"`
	Locale   string    `json:"locale"`
	Created  time.Time `json:"created"`
}

func (h *UserHandler) Public(e domain.Entity) any {
	user := e.(*domain.User)
	return publicUser{
		ID:       user.ID,
		Name:     user.Name,
		Fullname: user.Fullname,
		Locale:   user.Locale,
		Created:  user.Created,
	}
}

func (h *UserHandler) Links(e domain.Entity) (string, []string) {
	return selfLink("user", e.EntityID()), nil
}
