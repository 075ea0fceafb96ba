package api_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdlab/crowdlab/internal/domain"
)

func TestListDefaultPagination(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	owner := e.seedUser(t, "owner", false)
	project := e.seedProject(t, owner, "birds", nil)
	for i := 0; i < 25; i++ {
		e.seedTask(t, project, 30)
	}

	rec := e.do(t, http.MethodGet, "/api/task", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeList(t, rec)
	require.Len(t, items, 20)
	assert.Equal(t, float64(1), items[0]["id"])
	assert.Equal(t, float64(20), items[19]["id"])
}

func TestListKeysetPagesAreDisjoint(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	owner := e.seedUser(t, "owner", false)
	project := e.seedProject(t, owner, "birds", nil)
	for i := 0; i < 25; i++ {
		e.seedTask(t, project, 30)
	}

	first := decodeList(t, e.do(t, http.MethodGet, "/api/task", "", nil))
	lastID := int(first[len(first)-1]["id"].(float64))

	rec := e.do(t, http.MethodGet, fmt.Sprintf("/api/task?last_id=%d", lastID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeList(t, rec)
	require.Len(t, second, 5)

	seen := make(map[float64]bool)
	for _, item := range first {
		seen[item["id"].(float64)] = true
	}
	for _, item := range second {
		assert.False(t, seen[item["id"].(float64)], "page overlap at id %v", item["id"])
	}
	assert.Equal(t, float64(lastID+1), second[0]["id"])
}

func TestListLimitIsCapped(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	owner := e.seedUser(t, "owner", false)
	project := e.seedProject(t, owner, "birds", nil)
	for i := 0; i < 105; i++ {
		e.seedTask(t, project, 30)
	}

	rec := e.do(t, http.MethodGet, "/api/task?limit=500", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 100)
}

func TestListUnknownFilterKey(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/api/task?bogus=1", "", nil)
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "AttributeError", env.ExceptionCls)
	assert.Equal(t, "task", env.Target)
	assert.Equal(t, "GET", env.Action)
	assert.Equal(t, http.StatusUnsupportedMediaType, env.StatusCode)
}

func TestListAttributeFilter(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	owner := e.seedUser(t, "owner", false)
	birds := e.seedProject(t, owner, "birds", nil)
	bugs := e.seedProject(t, owner, "bugs", nil)
	e.seedTask(t, birds, 30)
	e.seedTask(t, bugs, 30)
	e.seedTask(t, birds, 30)

	rec := e.do(t, http.MethodGet, fmt.Sprintf("/api/task?project_id=%d", birds.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeList(t, rec)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, float64(birds.ID), item["project_id"])
	}
}

func TestGetSingleNotFound(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/project/999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", decodeEnvelope(t, rec).ExceptionCls)

	rec = e.do(t, http.MethodGet, "/api/project/abc", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHiddenProjectVisibility(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	owner := e.seedUser(t, "owner", false)
	stranger := e.seedUser(t, "stranger", false)
	admin := e.seedUser(t, "root", true)
	e.seedProject(t, owner, "public", nil)
	hidden := e.seedProject(t, owner, "secret", func(p *domain.Project) { p.Hidden = true })

	t.Run("dropped from anonymous collection", func(t *testing.T) {
		items := decodeList(t, e.do(t, http.MethodGet, "/api/project", "", nil))
		require.Len(t, items, 1)
		assert.Equal(t, "public", items[0]["short_name"])
	})

	t.Run("single read surfaces the denial", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, fmt.Sprintf("/api/project/%d", hidden.ID), "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", decodeEnvelope(t, rec).ExceptionCls)

		rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/project/%d", hidden.ID), stranger.APIKey, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Forbidden", decodeEnvelope(t, rec).ExceptionCls)
	})

	t.Run("owner and admin see it", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, fmt.Sprintf("/api/project/%d", hidden.ID), owner.APIKey, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		items := decodeList(t, e.do(t, http.MethodGet, "/api/project", admin.APIKey, nil))
		assert.Len(t, items, 2)
	})
}

func TestCreateProject(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := e.seedUser(t, "maker", false)

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/project", "", map[string]any{
			"name": "Birds", "short_name": "birds",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated create attributes ownership", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/project", user.APIKey, map[string]any{
			"name": "Birds", "short_name": "birds",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		obj := decodeObject(t, rec)
		assert.Equal(t, float64(user.ID), obj["owner_id"])
		assert.NotZero(t, obj["id"])
		_, hasLink := obj["link"]
		assert.False(t, hasLink, "writes return the bare entity")
	})
}

func TestCreateMalformedPayloads(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := e.seedUser(t, "maker", false)
	project := e.seedProject(t, user, "birds", nil)

	t.Run("reserved key", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/task", user.APIKey, map[string]any{
			"id": 99, "project_id": project.ID,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "BadRequest", env.ExceptionCls)
		assert.Equal(t, "Reserved keys in payload", env.ExceptionMsg)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/task", user.APIKey, map[string]any{
			"project_id": project.ID, "wings": 2,
		})
		require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, "TypeError", decodeEnvelope(t, rec).ExceptionCls)
	})

	t.Run("undecodable body", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/task", user.APIKey, "{not json")
		require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, "ValueError", decodeEnvelope(t, rec).ExceptionCls)
	})

	t.Run("link keys are stripped, not rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/task", user.APIKey, map[string]any{
			"project_id": project.ID, "link": "/api/task/1", "links": []string{"/api/project/1"},
		})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestTaskDefaultsOnCreate(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := e.seedUser(t, "maker", false)
	project := e.seedProject(t, user, "birds", nil)

	rec := e.do(t, http.MethodPost, "/api/task", user.APIKey, map[string]any{
		"project_id": project.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	obj := decodeObject(t, rec)
	assert.Equal(t, "ongoing", obj["state"])
	assert.Equal(t, float64(30), obj["n_answers"])
}

func TestLinksOnReads(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := e.seedUser(t, "maker", false)
	project := e.seedProject(t, user, "birds", nil)
	task := e.seedTask(t, project, 30)

	obj := decodeObject(t, e.do(t, http.MethodGet, fmt.Sprintf("/api/task/%d", task.ID), "", nil))
	assert.Equal(t, fmt.Sprintf("/api/task/%d", task.ID), obj["link"])
	links, ok := obj["links"].([]any)
	require.True(t, ok)
	assert.Contains(t, links, fmt.Sprintf("/api/project/%d", project.ID))

	t.Run("project links its category", func(t *testing.T) {
		categorized := e.seedProject(t, user, "bugs", func(p *domain.Project) { p.CategoryID = 3 })

		obj := decodeObject(t, e.do(t, http.MethodGet, fmt.Sprintf("/api/project/%d", categorized.ID), "", nil))
		links, ok := obj["links"].([]any)
		require.True(t, ok)
		assert.Contains(t, links, "/api/category/3")

		obj = decodeObject(t, e.do(t, http.MethodGet, fmt.Sprintf("/api/project/%d", project.ID), "", nil))
		assert.Nil(t, obj["links"], "no category, no parent links")
	})
}

func TestUpdateProject(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	owner := e.seedUser(t, "owner", false)
	stranger := e.seedUser(t, "stranger", false)
	project := e.seedProject(t, owner, "birds", nil)
	path := fmt.Sprintf("/api/project/%d", project.ID)

	t.Run("stranger forbidden", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, path, stranger.APIKey, map[string]any{"name": "Hijack"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner merges fields", func(t *testing.T) {
		rec := e.do(t, http.MethodPut, path, owner.APIKey, map[string]any{"description": "bird photos"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		obj := decodeObject(t, rec)
		assert.Equal(t, "bird photos", obj["description"])
		assert.Equal(t, "birds", obj["short_name"], "unmentioned fields survive the merge")
	})
}

func TestDeleteTaskCascadesToRuns(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	owner := e.seedUser(t, "owner", false)
	project := e.seedProject(t, owner, "birds", nil)
	task := e.seedTask(t, project, 30)

	userID := owner.ID
	run := &domain.TaskRun{ProjectID: project.ID, TaskID: task.ID, UserID: &userID}
	require.NoError(t, e.runs.Create(context.Background(), run))

	rec := e.do(t, http.MethodDelete, fmt.Sprintf("/api/task/%d", task.ID), owner.APIKey, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/taskrun/%d", run.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserDeleteIsMethodNotAllowed(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	admin := e.seedUser(t, "root", true)
	victim := e.seedUser(t, "victim", false)

	rec := e.do(t, http.MethodDelete, fmt.Sprintf("/api/user/%d", victim.ID), admin.APIKey, nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "MethodNotAllowed", decodeEnvelope(t, rec).ExceptionCls)
}

func TestUserReadsExposeRestrictedFields(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := e.seedUser(t, "jane", false)

	obj := decodeObject(t, e.do(t, http.MethodGet, fmt.Sprintf("/api/user/%d", user.ID), "", nil))
	assert.Equal(t, "jane", obj["name"])
	_, hasEmail := obj["email_addr"]
	assert.False(t, hasEmail)
	_, hasKey := obj["api_key"]
	assert.False(t, hasKey)
}

func TestUserRegistration(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/user", "", map[string]any{
		"name": "newbie", "fullname": "New Bee", "email_addr": "new@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	obj := decodeObject(t, rec)
	assert.NotZero(t, obj["id"])
	assert.NotEmpty(t, obj["api_key"], "registration response hands out the API key")
}

func TestJSONPCallback(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/api/project?callback=cb", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
	assert.Equal(t, "cb([])", rec.Body.String())
}
