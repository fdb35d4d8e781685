// Package saga coordinates multi-step workflows that touch external systems
// which cannot participate in a database transaction. Each step pairs an
// action with an optional compensation; when a later step fails, the
// compensations of every completed step run in reverse order before the
// original error is returned.
package saga

import (
	"context"
	"fmt"

	"allocmgr/internal/shared/logger"
)

// Step is one unit of a saga. Compensation may be nil for steps with no
// external side effect (local database writes ride the surrounding
// transaction and roll back with it).
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga executes steps in order and compensates on failure.
type Saga struct {
	steps  []Step
	logger logger.Interface
}

// New creates an empty saga.
func New(log logger.Interface) *Saga {
	return &Saga{logger: log}
}

// AddStep appends a step. Steps run in insertion order.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs each step's action. On the first failure it runs the
// compensations of all previously completed steps in reverse order, then
// returns the failing step's error. Compensation errors are logged but do
// not mask the original error; the caller gets the action failure.
func (s *Saga) Execute(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Action(ctx); err != nil {
			s.compensate(ctx, i-1)
			return fmt.Errorf("saga step %q failed: %w", step.Name, err)
		}
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, from int) {
	for i := from; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			// Keep going: remaining compensations still need a chance to run.
			s.logger.Errorw("saga compensation failed",
				"step", step.Name,
				"error", err,
			)
		}
	}
}
