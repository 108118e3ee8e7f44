package queue

import (
	"context"
	"fmt"
	"os"

	"docchat-platform/internal/logger"

	"github.com/hibiken/asynq"
)

// slogAdapter routes asynq's internal logging through the structured logger
type slogAdapter struct{}

// NewLogger returns an asynq.Logger backed by the process logger
func NewLogger() asynq.Logger { return slogAdapter{} }

func (slogAdapter) Debug(args ...interface{}) {
	logger.Debug(fmt.Sprint(args...), "component", "asynq")
}

func (slogAdapter) Info(args ...interface{}) {
	logger.Info(fmt.Sprint(args...), "component", "asynq")
}

func (slogAdapter) Warn(args ...interface{}) {
	logger.Warn(fmt.Sprint(args...), "component", "asynq")
}

func (slogAdapter) Error(args ...interface{}) {
	logger.Error(fmt.Sprint(args...), "component", "asynq")
}

// Fatal exits, as asynq.Logger requires
func (slogAdapter) Fatal(args ...interface{}) {
	logger.Error(fmt.Sprint(args...), "component", "asynq")
	os.Exit(1)
}

// LogTaskFailure records a task the worker gave up on
func LogTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	taskID, _ := asynq.GetTaskID(ctx)
	logger.Error("Task failed", "type", task.Type(), "task_id", taskID, "error", err)
}
