package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allocmgr/internal/shared/logger"
)

func step(name string, calls *[]string, fail bool, compensate bool) Step {
	st := Step{
		Name: name,
		Action: func(ctx context.Context) error {
			*calls = append(*calls, "action:"+name)
			if fail {
				return errors.New(name + " failed")
			}
			return nil
		},
	}
	if compensate {
		st.Compensate = func(ctx context.Context) error {
			*calls = append(*calls, "compensate:"+name)
			return nil
		}
	}
	return st
}

func TestSaga_AllStepsSucceed(t *testing.T) {
	var calls []string
	s := New(logger.NewLogger()).
		AddStep(step("a", &calls, false, true)).
		AddStep(step("b", &calls, false, true))

	err := s.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"action:a", "action:b"}, calls)
}

func TestSaga_FailureCompensatesCompletedStepsInReverseOrder(t *testing.T) {
	var calls []string
	s := New(logger.NewLogger()).
		AddStep(step("a", &calls, false, true)).
		AddStep(step("b", &calls, false, true)).
		AddStep(step("c", &calls, true, true))

	err := s.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), `saga step "c" failed`)
	assert.Equal(t, []string{
		"action:a", "action:b", "action:c",
		"compensate:b", "compensate:a",
	}, calls)
}

func TestSaga_FailedStepIsNotCompensated(t *testing.T) {
	var calls []string
	s := New(logger.NewLogger()).
		AddStep(step("a", &calls, true, true))

	err := s.Execute(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"action:a"}, calls)
}

func TestSaga_NilCompensationsAreSkipped(t *testing.T) {
	var calls []string
	s := New(logger.NewLogger()).
		AddStep(step("local-write", &calls, false, false)).
		AddStep(step("external", &calls, false, true)).
		AddStep(step("boom", &calls, true, false))

	err := s.Execute(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{
		"action:local-write", "action:external", "action:boom",
		"compensate:external",
	}, calls)
}

func TestSaga_CompensationErrorDoesNotMaskActionError(t *testing.T) {
	var calls []string
	s := New(logger.NewLogger()).
		AddStep(Step{
			Name:   "a",
			Action: func(ctx context.Context) error { calls = append(calls, "action:a"); return nil },
			Compensate: func(ctx context.Context) error {
				calls = append(calls, "compensate:a")
				return errors.New("compensation broke")
			},
		}).
		AddStep(step("b", &calls, true, true))

	err := s.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), `saga step "b" failed`)
	assert.Equal(t, []string{"action:a", "action:b", "compensate:a"}, calls)
}
