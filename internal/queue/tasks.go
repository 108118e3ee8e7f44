package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docchat-platform/internal/logger"
	"docchat-platform/models"

	"github.com/hibiken/asynq"
)

const TaskIngestDocument = "ingest:document"

// NewIngestTask wraps job in an asynq task. Ingestion is never retried
// automatically: a failed job stays failed until the user uploads again.
func NewIngestTask(job models.IngestionJob, queue string, timeout, retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}

	opts := []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Queue(queue),
		asynq.TaskID(job.ID),
	}
	if timeout > 0 {
		opts = append(opts, asynq.Timeout(timeout))
	}
	if retention > 0 {
		opts = append(opts, asynq.Retention(retention))
	}
	return asynq.NewTask(TaskIngestDocument, payload, opts...), nil
}

// Enqueuer hands ingestion jobs to the worker pool
type Enqueuer interface {
	Enqueue(ctx context.Context, job models.IngestionJob) error
}

// Client enqueues ingestion tasks on a single named queue
type Client struct {
	client    *asynq.Client
	queue     string
	timeout   time.Duration
	retention time.Duration
}

func NewClient(redisOpt asynq.RedisConnOpt, queue string, timeout, retention time.Duration) *Client {
	return &Client{
		client:    asynq.NewClient(redisOpt),
		queue:     queue,
		timeout:   timeout,
		retention: retention,
	}
}

func (c *Client) Enqueue(ctx context.Context, job models.IngestionJob) error {
	task, err := NewIngestTask(job, c.queue, c.timeout, c.retention)
	if err != nil {
		return fmt.Errorf("build task: %w", err)
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskIngestDocument, err)
	}
	logger.Debug("Enqueued ingestion task", "task_id", info.ID, "queue", info.Queue, "session_id", job.SessionID)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// JobProcessor runs a single ingestion job
type JobProcessor interface {
	Process(ctx context.Context, job models.IngestionJob) (*models.JobResult, error)
}

// TaskProcessor adapts a JobProcessor to asynq handlers
type TaskProcessor struct {
	jobs JobProcessor
}

func NewTaskProcessor(jobs JobProcessor) *TaskProcessor {
	return &TaskProcessor{jobs: jobs}
}

// Register installs every handler on mux
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskIngestDocument, p.ProcessIngest)
}

func (p *TaskProcessor) ProcessIngest(ctx context.Context, t *asynq.Task) error {
	var job models.IngestionJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}
	if job.SessionID == "" || job.SourcePath == "" {
		return fmt.Errorf("incomplete ingestion payload: %w", asynq.SkipRetry)
	}

	result, err := p.jobs.Process(ctx, job)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// shutdown: asynq requeues the task
			return err
		}
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if w := t.ResultWriter(); w != nil {
		data, err := json.Marshal(result)
		if err == nil {
			if _, err := w.Write(data); err != nil {
				logger.Warn("Failed to write task result", "session_id", job.SessionID, "error", err)
			}
		}
	}
	return nil
}
