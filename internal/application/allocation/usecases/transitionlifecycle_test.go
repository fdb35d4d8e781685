package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/logger"
)

type lifecycleFixture struct {
	store     *memStore
	userRepo  *fakeUserRepo
	directory *fakeDirectory
	uc        *TransitionLifecycleUseCase
	today     time.Time
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	store := newMemStore()
	f := &lifecycleFixture{
		store:     store,
		userRepo:  &fakeUserRepo{store: store},
		directory: newFakeDirectory(),
		today:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	f.uc = NewTransitionLifecycleUseCase(
		&fakeAllocRepo{store: store},
		f.userRepo,
		f.directory,
		&config.AllocationConfig{ShortnamePrefix: "rdf-"},
		&config.LifecycleConfig{RemovalDays: 30, DeletionDays: 90},
		true,
		logger.NewLogger(),
	)
	f.uc.now = func() time.Time { return f.today }
	return f
}

func (f *lifecycleFixture) seed(t *testing.T, shortname string, status allocation.Status, daysSinceEnd int, members ...string) *allocation.Allocation {
	t.Helper()

	end := f.today.AddDate(0, 0, -daysSinceEnd)
	ref := allocation.ProjectRef{ID: 1, Title: "Project " + shortname, PIUsername: "pi", PIEmail: "pi@example.ac.uk"}
	a, err := allocation.NewAllocation(ref, end.AddDate(-1, 0, 0), &end, "justified")
	require.NoError(t, err)
	require.NoError(t, a.SetAttribute(allocation.Attribute{Type: allocation.AttributeShortname, Value: shortname}))
	require.NoError(t, (&fakeAllocRepo{store: f.store}).Create(context.Background(), a))

	for s := allocation.StatusActive; s != status; {
		next := allocation.StatusExpired
		switch s {
		case allocation.StatusExpired:
			next = allocation.StatusRemoved
		case allocation.StatusRemoved:
			next = allocation.StatusDeleted
		}
		require.NoError(t, a.TransitionTo(next))
		s = next
	}

	group := "rdf-" + shortname
	f.directory.groups[group] = nil
	for _, username := range members {
		u, err := allocation.NewUser(a.ID(), username, username+"@example.ac.uk", nil)
		require.NoError(t, err)
		require.NoError(t, f.userRepo.Create(context.Background(), u))
		f.directory.groups[group] = append(f.directory.groups[group], username)
	}
	return a
}

func TestTransitionLifecycle_ActiveExpires(t *testing.T) {
	f := newLifecycleFixture(t)
	a := f.seed(t, "genome", allocation.StatusActive, 1)

	result, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, allocation.StatusExpired, a.Status())
}

func TestTransitionLifecycle_BeforeEndDateNoChange(t *testing.T) {
	f := newLifecycleFixture(t)
	a := f.seed(t, "genome", allocation.StatusActive, -10)

	result, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Expired)
	assert.Equal(t, allocation.StatusActive, a.Status())
}

func TestTransitionLifecycle_RemovedTransitionRemovesMembers(t *testing.T) {
	f := newLifecycleFixture(t)
	a := f.seed(t, "genome", allocation.StatusExpired, 31, "alice", "bob")

	result, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, allocation.StatusRemoved, a.Status())
	assert.Empty(t, f.directory.groups["rdf-genome"], "every Active member removed from the group")
}

func TestTransitionLifecycle_DeletedTransitionMakesNoDirectoryCalls(t *testing.T) {
	f := newLifecycleFixture(t)
	a := f.seed(t, "genome", allocation.StatusRemoved, 91, "alice")
	f.directory.failRemove = assert.AnError

	result, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, allocation.StatusDeleted, a.Status())
}

func TestTransitionLifecycle_OneStepPerRun(t *testing.T) {
	f := newLifecycleFixture(t)
	// Far past every threshold but still Active: one run expires it, the
	// next removes it.
	a := f.seed(t, "genome", allocation.StatusActive, 200, "alice")

	_, err := f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, allocation.StatusExpired, a.Status())

	_, err = f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, allocation.StatusRemoved, a.Status())

	_, err = f.uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, allocation.StatusDeleted, a.Status())
}

func TestTransitionLifecycle_DirectoryFailureLeavesStatusForRetry(t *testing.T) {
	f := newLifecycleFixture(t)
	a := f.seed(t, "genome", allocation.StatusExpired, 31, "alice")
	f.directory.failRemove = assert.AnError

	result, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Removed)
	assert.Equal(t, allocation.StatusExpired, a.Status(), "status unchanged so the next run retries")
}

func TestTransitionLifecycle_NilEndDateSkipped(t *testing.T) {
	f := newLifecycleFixture(t)

	ref := allocation.ProjectRef{ID: 1, Title: "Permanent", PIUsername: "pi", PIEmail: "pi@example.ac.uk"}
	a, err := allocation.NewAllocation(ref, f.today.AddDate(-5, 0, 0), nil, "justified")
	require.NoError(t, err)
	require.NoError(t, (&fakeAllocRepo{store: f.store}).Create(context.Background(), a))

	result, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Expired)
	assert.Equal(t, allocation.StatusActive, a.Status())
}
