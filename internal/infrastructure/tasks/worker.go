package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"allocmgr/internal/shared/goroutine"
	"allocmgr/internal/shared/logger"
)

// Handler runs one task kind. The returned value, when non-nil, is stored
// as the task result for clients polling the task.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Worker polls the queue and dispatches claimed tasks to registered
// handlers.
type Worker struct {
	queue    *Queue
	handlers map[string]Handler
	interval time.Duration
	logger   logger.Interface

	stop chan struct{}
	done chan struct{}
}

func NewWorker(queue *Queue, interval time.Duration, log logger.Interface) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		queue:    queue,
		handlers: make(map[string]Handler),
		interval: interval,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Register binds a handler to a task kind. Must be called before Start.
func (w *Worker) Register(kind string, h Handler) {
	w.handlers[kind] = h
}

// Start launches the polling loop in a background goroutine.
func (w *Worker) Start() {
	goroutine.SafeGo(w.logger, "task-worker", func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				w.drain()
			}
		}
	})
	w.logger.Infow("task worker started", "poll_interval", w.interval)
}

// Stop signals the loop to exit and waits for the in-flight task to finish.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
	w.logger.Infow("task worker stopped")
}

// drain claims and runs tasks until the queue is empty.
func (w *Worker) drain() {
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		ctx := context.Background()
		task, err := w.queue.ClaimNext(ctx)
		if err != nil {
			w.logger.Errorw("failed to claim task", "error", err)
			return
		}
		if task == nil {
			return
		}
		w.run(ctx, task)
	}
}

func (w *Worker) run(ctx context.Context, task *Task) {
	handler, ok := w.handlers[task.Kind]
	if !ok {
		err := fmt.Errorf("no handler registered for task kind %q", task.Kind)
		w.logger.Errorw("unhandled task kind", "task_id", task.ID, "kind", task.Kind)
		if failErr := w.queue.Fail(ctx, task.ID, err); failErr != nil {
			w.logger.Errorw("failed to mark task failed", "task_id", task.ID, "error", failErr)
		}
		return
	}

	w.logger.Infow("running task", "task_id", task.ID, "kind", task.Kind)
	result, err := handler(ctx, task.Payload)
	if err != nil {
		w.logger.Errorw("task failed", "task_id", task.ID, "kind", task.Kind, "error", err)
		if failErr := w.queue.Fail(ctx, task.ID, err); failErr != nil {
			w.logger.Errorw("failed to mark task failed", "task_id", task.ID, "error", failErr)
		}
		return
	}

	if err := w.queue.Complete(ctx, task.ID, result); err != nil {
		w.logger.Errorw("failed to mark task succeeded", "task_id", task.ID, "error", err)
		return
	}
	w.logger.Infow("task succeeded", "task_id", task.ID, "kind", task.Kind)
}
