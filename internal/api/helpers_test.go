package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/crowdlab/crowdlab/internal/api"
	apimiddleware "github.com/crowdlab/crowdlab/internal/api/middleware"
	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/ephemeral"
	"github.com/crowdlab/crowdlab/internal/mocks"
)

// captureNotifier records completion events instead of delivering them.
type captureNotifier struct {
	mu     sync.Mutex
	events []int // completed task ids
}

func (n *captureNotifier) TaskCompleted(_ context.Context, _ *domain.Project, task *domain.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, task.ID)
}

func (n *captureNotifier) completed() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.events...)
}

// plainHasher avoids bcrypt cost in handler tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

// env wires the API router onto in-memory stores.
type env struct {
	users    *mocks.UserStore
	projects *mocks.ProjectStore
	tasks    *mocks.TaskStore
	runs     *mocks.TaskRunStore
	markers  *ephemeral.Store
	notifier *captureNotifier
	router   http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := mocks.NewUserStore()
	runs := mocks.NewTaskRunStore()
	tasks := mocks.NewTaskStore()
	tasks.Runs = runs
	projects := mocks.NewProjectStore()
	projects.Tasks = tasks
	categories := mocks.NewCategoryStore()
	markers := ephemeral.New(time.Minute)
	notifier := &captureNotifier{}

	scheduler := api.NewScheduler(tasks, projects, markers, time.Minute)

	r := chi.NewRouter()
	r.Use(apimiddleware.Authenticate(users, nil, logger))
	r.Route("/api", func(r chi.Router) {
		api.NewResource(api.NewProjectHandler(projects), logger).Mount(r, func(r chi.Router) {
			r.Get("/{id}/newtask", scheduler.NewTask)
		})
		api.NewResource(api.NewCategoryHandler(categories), logger).Mount(r)
		api.NewResource(api.NewTaskHandler(tasks, projects), logger).Mount(r)
		api.NewResource(api.NewTaskRunHandler(tasks, runs, projects, markers, notifier, logger), logger).Mount(r)
		api.NewResource(api.NewUserHandler(users, plainHasher{}), logger).Mount(r)
	})

	return &env{
		users:    users,
		projects: projects,
		tasks:    tasks,
		runs:     runs,
		markers:  markers,
		notifier: notifier,
		router:   r,
	}
}

// do performs a request against the router. A non-empty apiKey is added
// as the api_key query parameter.
func (e *env) do(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		q := req.URL.Query()
		q.Set("api_key", apiKey)
		req.URL.RawQuery = q.Encode()
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// seedUser stores a user and returns it with its API key populated.
func (e *env) seedUser(t *testing.T, name string, admin bool) *domain.User {
	t.Helper()

	user := domain.NewUser(name, name, name+"@example.com")
	user.PasswordHash = "hashed:secret"
	user.Admin = admin
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *env) seedProject(t *testing.T, owner *domain.User, shortName string, mutate func(*domain.Project)) *domain.Project {
	t.Helper()

	project := &domain.Project{
		Name:           shortName,
		ShortName:      shortName,
		OwnerID:        owner.ID,
		AllowAnonymous: true,
	}
	if mutate != nil {
		mutate(project)
	}
	require.NoError(t, e.projects.Create(context.Background(), project))
	return project
}

func (e *env) seedTask(t *testing.T, project *domain.Project, nAnswers int) *domain.Task {
	t.Helper()

	task := &domain.Task{ProjectID: project.ID, NAnswers: nAnswers}
	require.NoError(t, e.tasks.Create(context.Background(), task))
	return task
}

// envelope mirrors the failure body for assertions.
type envelope struct {
	Status       string `json:"status"`
	StatusCode   int    `json:"status_code"`
	Action       string `json:"action"`
	Target       string `json:"target"`
	ExceptionCls string `json:"exception_cls"`
	ExceptionMsg string `json:"exception_msg"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "failed", env.Status)
	return env
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()

	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	return items
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var obj map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &obj))
	return obj
}
