package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/crowdlab/crowdlab/internal/domain"
)

// JobTypeWebhook identifies webhook delivery jobs.
const JobTypeWebhook = "webhook_delivery"

// webhookPayload is the body POSTed to a project's webhook URL when one
// of its tasks completes. Field names are part of the webhook contract.
type webhookPayload struct {
	Event            string `json:"event"`
	ProjectShortName string `json:"project_short_name"`
	ProjectID        int    `json:"project_id"`
	TaskID           int    `json:"task_id"`
	FiredAt          string `json:"fired_at"`
}

// WebhookJob delivers one task-completed event.
type WebhookJob struct {
	id      uuid.UUID
	url     string
	payload webhookPayload
	client  *http.Client
}

// NewWebhookJob creates a delivery job for the completed task.
func NewWebhookJob(project *domain.Project, taskID int, client *http.Client) *WebhookJob {
	return &WebhookJob{
		id:  uuid.New(),
		url: project.Webhook,
		payload: webhookPayload{
			Event:            "task_completed",
			ProjectShortName: project.ShortName,
			ProjectID:        project.ID,
			TaskID:           taskID,
			FiredAt:          time.Now().UTC().Format(time.RFC3339),
		},
		client: client,
	}
}

// ID implements Job.
func (j *WebhookJob) ID() uuid.UUID { return j.id }

// Type implements Job.
func (j *WebhookJob) Type() string { return JobTypeWebhook }

// Execute implements Job.
func (j *WebhookJob) Execute(ctx context.Context) error {
	body, err := json.Marshal(j.payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering webhook to %s: %w", j.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook endpoint %s returned %d", j.url, resp.StatusCode)
	}
	return nil
}

// Notifier turns task-completed events into queued webhook jobs. It
// implements the API layer's CompletionNotifier.
type Notifier struct {
	runner *Runner
	client *http.Client
	logger *slog.Logger
}

// NewNotifier creates a Notifier delivering through the runner.
func NewNotifier(runner *Runner, logger *slog.Logger) *Notifier {
	return &Notifier{
		runner: runner,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With(slog.String("component", "webhook_notifier")),
	}
}

// TaskCompleted enqueues a webhook delivery for the completed task.
// Projects without a webhook URL are skipped.
func (n *Notifier) TaskCompleted(_ context.Context, project *domain.Project, task *domain.Task) {
	if project.Webhook == "" {
		return
	}
	job := NewWebhookJob(project, task.ID, n.client)
	if err := n.runner.Submit(job); err != nil {
		n.logger.Error("enqueueing webhook delivery",
			slog.Int("project_id", project.ID),
			slog.Int("task_id", task.ID),
			slog.String("error", err.Error()))
	}
}
