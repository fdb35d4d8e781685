package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/logger"
)

func TestPruneMemberships(t *testing.T) {
	store := newMemStore()
	userRepo := &fakeUserRepo{store: store}
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	seed := func(username string, expiration *time.Time) {
		u, err := allocation.NewUser(1, username, username+"@example.ac.uk", expiration)
		require.NoError(t, err)
		require.NoError(t, userRepo.Create(context.Background(), u))
	}

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	seed("expired", &past)
	seed("current", &future)
	seed("permanent", nil)

	uc := NewPruneMembershipsUseCase(userRepo, logger.NewLogger())
	uc.now = func() time.Time { return now }

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Deleted)

	remaining, err := userRepo.ListByAllocation(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "current", remaining[0].Username())
	assert.Equal(t, "permanent", remaining[1].Username())

	// Idempotent: an immediate second run deletes nothing.
	result, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
}

func TestPruneMemberships_ExactExpirationNotDeleted(t *testing.T) {
	store := newMemStore()
	userRepo := &fakeUserRepo{store: store}
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	u, err := allocation.NewUser(1, "boundary", "boundary@example.ac.uk", &now)
	require.NoError(t, err)
	require.NoError(t, userRepo.Create(context.Background(), u))

	uc := NewPruneMembershipsUseCase(userRepo, logger.NewLogger())
	uc.now = func() time.Time { return now }

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Deleted, "expiration equal to now is not yet past")
}
