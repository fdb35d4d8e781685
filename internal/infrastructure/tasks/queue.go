// Package tasks implements a database-backed task queue. The HTTP interface
// enqueues work and returns a task id; workers claim pending tasks and run
// them, and clients poll task status by id.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"allocmgr/internal/infrastructure/persistence/models"
	apperrors "allocmgr/internal/shared/errors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// KindProvisionAllocation is the task kind for allocation provisioning.
const KindProvisionAllocation = "provision_allocation"

// Task is one unit of queued work.
type Task struct {
	ID         string
	Kind       string
	Status     Status
	Payload    json.RawMessage
	Result     json.RawMessage
	Error      string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

type Queue struct {
	db *gorm.DB
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue stores a pending task and returns its id.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	model := &models.TaskModel{
		ID:      uuid.NewString(),
		Kind:    kind,
		Status:  string(StatusPending),
		Payload: datatypes.JSON(data),
	}
	if err := q.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}
	return model.ID, nil
}

// Get returns a task by id.
func (q *Queue) Get(ctx context.Context, id string) (*Task, error) {
	var model models.TaskModel
	if err := q.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("task %s not found", id))
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return toTask(&model), nil
}

// ClaimNext atomically moves the oldest pending task to running and returns
// it. Returns nil when the queue is empty.
func (q *Queue) ClaimNext(ctx context.Context) (*Task, error) {
	var claimed *models.TaskModel

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.TaskModel
		if err := tx.
			Where("status = ?", string(StatusPending)).
			Order("created_at ASC").
			First(&model).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return fmt.Errorf("failed to find pending task: %w", err)
		}

		now := time.Now().UnixMilli()
		result := tx.
			Model(&models.TaskModel{}).
			Where("id = ? AND status = ?", model.ID, string(StatusPending)).
			Updates(map[string]any{
				"status":     string(StatusRunning),
				"started_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to claim task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Another worker claimed it first.
			return nil
		}

		model.Status = string(StatusRunning)
		model.StartedAt = &now
		claimed = &model
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		return nil, nil
	}
	return toTask(claimed), nil
}

// Complete marks a running task succeeded with an optional result payload.
func (q *Queue) Complete(ctx context.Context, id string, result any) error {
	updates := map[string]any{
		"status":      string(StatusSucceeded),
		"finished_at": time.Now().UnixMilli(),
	}
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal task result: %w", err)
		}
		updates["result"] = datatypes.JSON(data)
	}
	return q.finish(ctx, id, updates)
}

// Fail marks a running task failed with the error message.
func (q *Queue) Fail(ctx context.Context, id string, taskErr error) error {
	return q.finish(ctx, id, map[string]any{
		"status":      string(StatusFailed),
		"error":       taskErr.Error(),
		"finished_at": time.Now().UnixMilli(),
	})
}

func (q *Queue) finish(ctx context.Context, id string, updates map[string]any) error {
	result := q.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to finish task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("task %s not found", id))
	}
	return nil
}

func toTask(model *models.TaskModel) *Task {
	t := &Task{
		ID:        model.ID,
		Kind:      model.Kind,
		Status:    Status(model.Status),
		Payload:   json.RawMessage(model.Payload),
		Result:    json.RawMessage(model.Result),
		Error:     model.Error,
		CreatedAt: time.UnixMilli(model.CreatedAt).UTC(),
	}
	if model.StartedAt != nil {
		started := time.UnixMilli(*model.StartedAt).UTC()
		t.StartedAt = &started
	}
	if model.FinishedAt != nil {
		finished := time.UnixMilli(*model.FinishedAt).UTC()
		t.FinishedAt = &finished
	}
	return t
}
