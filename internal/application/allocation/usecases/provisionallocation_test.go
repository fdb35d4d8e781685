package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/config"
	apperrors "allocmgr/internal/shared/errors"
	"allocmgr/internal/shared/logger"
)

type provisionFixture struct {
	store      *memStore
	allocRepo  *fakeAllocRepo
	userRepo   *fakeUserRepo
	directory  *fakeDirectory
	filesystem *fakeFilesystem
	uc         *ProvisionAllocationUseCase
}

func newProvisionFixture(t *testing.T) *provisionFixture {
	t.Helper()

	store := newMemStore()
	store.projects[42] = &allocation.ProjectRef{
		ID:         42,
		Title:      "Genome Pipeline",
		PIUsername: "jdoe",
		PIEmail:    "j.doe@example.ac.uk",
		Faculty:    "sci",
		Department: "compsci",
	}

	f := &provisionFixture{
		store:      store,
		allocRepo:  &fakeAllocRepo{store: store},
		userRepo:   &fakeUserRepo{store: store},
		directory:  newFakeDirectory(),
		filesystem: &fakeFilesystem{},
	}

	allocCfg := &config.AllocationConfig{
		ShortnamePrefix: "rdf-",
		GIDRanges:       []config.GIDRange{{Start: 301000, Stop: 302000}},
		MinStorageTB:    1,
		MaxStorageTB:    100,
	}
	fsCfg := &config.FilesystemConfig{
		Name:        "gpfs0",
		MountPath:   "/",
		TopLevelDir: "rds/projects",
		FilesQuota:  "1000000",
	}

	f.uc = NewProvisionAllocationUseCase(
		f.allocRepo,
		f.userRepo,
		&fakeProjectRepo{store: store},
		&fakeTxManager{store: store},
		f.directory,
		f.filesystem,
		allocCfg,
		fsCfg,
		true, true,
		logger.NewLogger(),
	)
	return f
}

func validCommand() ProvisionAllocationCommand {
	end := time.Date(2027, 9, 1, 0, 0, 0, 0, time.UTC)
	return ProvisionAllocationCommand{
		ProjectID:     42,
		Shortname:     "genome",
		StorageTB:     10,
		StartDate:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       &end,
		Justification: "sequencing scratch space",
	}
}

func TestProvisionAllocation_Success(t *testing.T) {
	f := newProvisionFixture(t)

	result, err := f.uc.Execute(context.Background(), validCommand())
	require.NoError(t, err)

	assert.Equal(t, 301000, result.GID)
	assert.Equal(t, "rdf-genome", result.GroupName)
	assert.Equal(t, "/gpfs0/rds/projects/sci/compsci/rdf-genome/genome", result.FilesetPath)

	alloc := f.store.allocs[result.AllocationID]
	require.NotNil(t, alloc)
	assert.Equal(t, allocation.StatusActive, alloc.Status())

	// One attribute of each required type, quotas usage-zeroed.
	attrs := alloc.Attributes()
	byType := make(map[allocation.AttributeType]allocation.Attribute, len(attrs))
	for _, a := range attrs {
		byType[a.Type] = a
	}
	assert.Equal(t, "genome", byType[allocation.AttributeShortname].Value)
	assert.Equal(t, "301000", byType[allocation.AttributeGID].Value)
	assert.Equal(t, "10", byType[allocation.AttributeStorageQuota].Value)
	assert.Zero(t, byType[allocation.AttributeStorageQuota].Usage)
	assert.Equal(t, "1000000", byType[allocation.AttributeFilesQuota].Value)
	assert.Zero(t, byType[allocation.AttributeFilesQuota].Usage)
	assert.Equal(t, result.FilesetPath, byType[allocation.AttributeFilesystemLocation].Value)

	// PI becomes the one Active member.
	users, err := f.userRepo.ListByAllocation(context.Background(), result.AllocationID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "jdoe", users[0].Username())
	assert.Equal(t, allocation.UserStatusActive, users[0].Status())

	// Directory group created with the PI as member; fileset provisioned.
	assert.Equal(t, []string{"jdoe"}, f.directory.groups["rdf-genome"])
	require.Len(t, f.filesystem.calls, 1)
	assert.Equal(t, "10T", f.filesystem.calls[0].blockQuota)
	assert.Equal(t, 301000, f.filesystem.calls[0].gid)
}

func TestProvisionAllocation_SequentialGIDs(t *testing.T) {
	f := newProvisionFixture(t)

	first, err := f.uc.Execute(context.Background(), validCommand())
	require.NoError(t, err)

	cmd := validCommand()
	cmd.Shortname = "widgets"
	second, err := f.uc.Execute(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, first.GID+1, second.GID)
}

func TestProvisionAllocation_DuplicateShortname(t *testing.T) {
	f := newProvisionFixture(t)

	_, err := f.uc.Execute(context.Background(), validCommand())
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), validCommand())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))
}

func TestProvisionAllocation_DirectoryFailureRollsBackEverything(t *testing.T) {
	f := newProvisionFixture(t)
	f.directory.failCreateGroup = apperrors.NewExternalError("directory unavailable")

	_, err := f.uc.Execute(context.Background(), validCommand())
	require.Error(t, err)

	assert.Empty(t, f.store.allocs, "no allocation rows after rollback")
	assert.Empty(t, f.store.users, "no membership rows after rollback")
	assert.Empty(t, f.filesystem.calls, "no filesystem call was attempted")
}

func TestProvisionAllocation_FilesystemFailureCompensatesGroup(t *testing.T) {
	f := newProvisionFixture(t)
	f.filesystem.fail = apperrors.NewExternalError("fileset creation failed")

	_, err := f.uc.Execute(context.Background(), validCommand())
	require.Error(t, err)

	assert.Empty(t, f.store.allocs, "no allocation rows after rollback")
	assert.Empty(t, f.store.users, "no membership rows after rollback")

	// The directory group was created, then deleted again in compensation.
	assert.Contains(t, f.directory.deleted, "rdf-genome")
	assert.NotContains(t, f.directory.groups, "rdf-genome")
}

func TestProvisionAllocation_Validation(t *testing.T) {
	f := newProvisionFixture(t)

	tests := []struct {
		name   string
		mutate func(*ProvisionAllocationCommand)
	}{
		{"missing project", func(c *ProvisionAllocationCommand) { c.ProjectID = 0 }},
		{"bad shortname", func(c *ProvisionAllocationCommand) { c.Shortname = "Bad_Name!" }},
		{"storage too small", func(c *ProvisionAllocationCommand) { c.StorageTB = 0 }},
		{"storage too large", func(c *ProvisionAllocationCommand) { c.StorageTB = 5000 }},
		{"missing justification", func(c *ProvisionAllocationCommand) { c.Justification = "" }},
		{"end before start", func(c *ProvisionAllocationCommand) {
			early := c.StartDate.AddDate(0, -1, 0)
			c.EndDate = &early
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validCommand()
			tt.mutate(&cmd)

			_, err := f.uc.Execute(context.Background(), cmd)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidationError(err))
			assert.Empty(t, f.store.allocs)
		})
	}
}

func TestProvisionAllocation_GIDExhaustion(t *testing.T) {
	f := newProvisionFixture(t)
	f.uc.allocCfg.GIDRanges = []config.GIDRange{{Start: 301000, Stop: 301001}}

	_, err := f.uc.Execute(context.Background(), validCommand())
	require.NoError(t, err)

	cmd := validCommand()
	cmd.Shortname = "widgets"
	_, err = f.uc.Execute(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))
}
