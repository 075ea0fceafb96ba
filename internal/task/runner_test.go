package task

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdlab/crowdlab/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeJob signals done when executed.
type fakeJob struct {
	id   uuid.UUID
	done chan struct{}
	err  error
}

func newFakeJob() *fakeJob {
	return &fakeJob{id: uuid.New(), done: make(chan struct{})}
}

func (j *fakeJob) ID() uuid.UUID { return j.id }
func (j *fakeJob) Type() string  { return "fake" }
func (j *fakeJob) Execute(context.Context) error {
	close(j.done)
	return j.err
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
}

func TestRunnerExecutesSubmittedJobs(t *testing.T) {
	t.Parallel()

	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 4}, discardLogger())
	r.Start()
	defer r.Stop()

	job := newFakeJob()
	require.NoError(t, r.Submit(job))
	waitDone(t, job.done)
}

func TestRunnerSubmitFailsWhenQueueFull(t *testing.T) {
	t.Parallel()

	// Never started: nothing drains the queue.
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, discardLogger())

	require.NoError(t, r.Submit(newFakeJob()))
	assert.Error(t, r.Submit(newFakeJob()))
}

func TestRunnerDefaultsAppliedToZeroConfig(t *testing.T) {
	t.Parallel()

	r := NewRunner(RunnerConfig{}, discardLogger())
	assert.Equal(t, DefaultRunnerConfig().WorkerCount, r.config.WorkerCount)
	assert.Equal(t, DefaultRunnerConfig().QueueSize, cap(r.jobChan))
}

func TestWebhookJobDeliversPayload(t *testing.T) {
	t.Parallel()

	received := make(chan webhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	project := &domain.Project{ID: 7, ShortName: "birds", Webhook: srv.URL}
	job := NewWebhookJob(project, 42, srv.Client())
	require.NoError(t, job.Execute(context.Background()))

	p := <-received
	assert.Equal(t, "task_completed", p.Event)
	assert.Equal(t, "birds", p.ProjectShortName)
	assert.Equal(t, 7, p.ProjectID)
	assert.Equal(t, 42, p.TaskID)
	_, err := time.Parse(time.RFC3339, p.FiredAt)
	assert.NoError(t, err)
}

func TestWebhookJobFailsOnErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	project := &domain.Project{ShortName: "birds", Webhook: srv.URL}
	job := NewWebhookJob(project, 1, srv.Client())
	assert.Error(t, job.Execute(context.Background()))
}

func TestNotifierSkipsProjectsWithoutWebhook(t *testing.T) {
	t.Parallel()

	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, discardLogger())
	n := NewNotifier(r, discardLogger())

	n.TaskCompleted(context.Background(), &domain.Project{ID: 1}, &domain.Task{ID: 2})
	assert.Empty(t, r.jobChan, "no delivery without a webhook URL")
}

func TestNotifierDeliversThroughRunner(t *testing.T) {
	t.Parallel()

	hit := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 4}, discardLogger())
	r.Start()
	defer r.Stop()

	n := NewNotifier(r, discardLogger())
	project := &domain.Project{ID: 1, ShortName: "birds", Webhook: srv.URL}
	n.TaskCompleted(context.Background(), project, &domain.Task{ID: 2})

	select {
	case <-hit:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}
