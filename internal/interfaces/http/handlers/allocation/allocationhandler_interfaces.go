package allocation

import (
	"context"

	"allocmgr/internal/application/allocation/dto"
	"allocmgr/internal/application/allocation/usecases"
	"allocmgr/internal/infrastructure/tasks"
)

// GetAllocationExecutor abstracts the get-allocation use case.
type GetAllocationExecutor interface {
	Execute(ctx context.Context, query usecases.GetAllocationQuery) (*dto.AllocationDTO, error)
}

// TaskQueue abstracts the task queue operations the handler needs.
type TaskQueue interface {
	Enqueue(ctx context.Context, kind string, payload any) (string, error)
	Get(ctx context.Context, id string) (*tasks.Task, error)
}
