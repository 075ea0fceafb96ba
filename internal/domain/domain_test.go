package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserValidate(t *testing.T) {
	t.Parallel()

	valid := func() *User {
		u := NewUser("jane", "Jane Doe", "jane@example.com")
		u.PasswordHash = "$2a$10$hash"
		return u
	}

	t.Run("valid user passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("empty name", func(t *testing.T) {
		u := valid()
		u.Name = ""
		assert.ErrorIs(t, u.Validate(), ErrEmptyName)
	})

	t.Run("empty email", func(t *testing.T) {
		u := valid()
		u.Email = ""
		assert.ErrorIs(t, u.Validate(), ErrEmptyEmail)
	})

	t.Run("malformed email", func(t *testing.T) {
		for _, email := range []string{"nope", "@example.com", "jane@", "jane@nodot"} {
			u := valid()
			u.Email = email
			assert.ErrorIs(t, u.Validate(), ErrInvalidEmail, "email %q", email)
		}
	})

	t.Run("missing password hash", func(t *testing.T) {
		u := NewUser("jane", "Jane Doe", "jane@example.com")
		assert.ErrorIs(t, u.Validate(), ErrEmptyPasswordHash)
	})
}

func TestNewUserGeneratesAPIKey(t *testing.T) {
	t.Parallel()

	a := NewUser("a", "A", "a@example.com")
	b := NewUser("b", "B", "b@example.com")
	require.NotEmpty(t, a.APIKey)
	assert.NotEqual(t, a.APIKey, b.APIKey)
	assert.Equal(t, "en", a.Locale)
}

func TestUserActorHelpers(t *testing.T) {
	t.Parallel()

	var anonymous *User
	assert.True(t, anonymous.IsAnonymous())
	assert.False(t, anonymous.IsAdmin())

	regular := &User{ID: 1}
	assert.False(t, regular.IsAnonymous())
	assert.False(t, regular.IsAdmin())

	admin := &User{ID: 2, Admin: true}
	assert.True(t, admin.IsAdmin())
}

func TestProjectValidate(t *testing.T) {
	t.Parallel()

	p := &Project{Name: "Birds", ShortName: "birds", OwnerID: 1}
	assert.NoError(t, p.Validate())

	assert.ErrorIs(t, (&Project{ShortName: "x", OwnerID: 1}).Validate(), ErrEmptyName)
	assert.ErrorIs(t, (&Project{Name: "x", OwnerID: 1}).Validate(), ErrEmptyShortName)
	assert.ErrorIs(t, (&Project{Name: "x", ShortName: "x"}).Validate(), ErrEmptyOwner)
}

func TestProjectHasPresenter(t *testing.T) {
	t.Parallel()

	assert.False(t, (&Project{}).HasPresenter())
	assert.False(t, (&Project{Info: Info{"task_presenter": ""}}).HasPresenter())
	assert.True(t, (&Project{Info: Info{"task_presenter": "<div></div>"}}).HasPresenter())
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	task := &Task{ProjectID: 1, State: TaskStateOngoing, NAnswers: 30}
	assert.NoError(t, task.Validate())

	assert.ErrorIs(t, (&Task{State: TaskStateOngoing, NAnswers: 1}).Validate(), ErrEmptyProjectID)
	assert.ErrorIs(t, (&Task{ProjectID: 1, State: "paused", NAnswers: 1}).Validate(), ErrInvalidTaskState)
	assert.ErrorIs(t, (&Task{ProjectID: 1, State: TaskStateOngoing}).Validate(), ErrInvalidNAnswers)
}

func TestTaskRunValidate(t *testing.T) {
	t.Parallel()

	userID := 7
	ip := "10.0.0.1"

	run := &TaskRun{ProjectID: 1, TaskID: 2, UserID: &userID}
	assert.NoError(t, run.Validate())

	both := &TaskRun{ProjectID: 1, TaskID: 2, UserID: &userID, UserIP: &ip}
	assert.ErrorIs(t, both.Validate(), ErrBothUserAndIP)

	neither := &TaskRun{ProjectID: 1, TaskID: 2}
	assert.ErrorIs(t, neither.Validate(), ErrNoAttribution)
}

func TestTaskRunContributorKey(t *testing.T) {
	t.Parallel()

	userID := 42
	ip := "192.0.2.9"

	registered := &TaskRun{UserID: &userID}
	assert.Equal(t, "42", registered.ContributorKey())
	assert.False(t, registered.Anonymous())

	anonymous := &TaskRun{UserIP: &ip}
	assert.Equal(t, "192.0.2.9", anonymous.ContributorKey())
	assert.True(t, anonymous.Anonymous())
}
