package usecases

import (
	"context"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/logger"
)

type SyncMembershipChangeCommand struct {
	AllocationID uint
	Username     string
	OldStatus    allocation.UserStatus
	NewStatus    allocation.UserStatus
	// Deleted marks a membership row removal rather than a status change.
	Deleted bool
}

// SyncMembershipChangeUseCase propagates one membership mutation to the
// directory group. It is the explicit replacement for signal-style dispatch:
// every code path that saves or deletes a membership row calls this. Both
// directions are idempotent, so at-least-once delivery is safe.
type SyncMembershipChangeUseCase struct {
	allocRepo  allocation.Repository
	directory  DirectoryService
	allocCfg   *config.AllocationConfig
	dirEnabled bool
	logger     logger.Interface
}

func NewSyncMembershipChangeUseCase(
	allocRepo allocation.Repository,
	directory DirectoryService,
	allocCfg *config.AllocationConfig,
	dirEnabled bool,
	logger logger.Interface,
) *SyncMembershipChangeUseCase {
	return &SyncMembershipChangeUseCase{
		allocRepo:  allocRepo,
		directory:  directory,
		allocCfg:   allocCfg,
		dirEnabled: dirEnabled,
		logger:     logger,
	}
}

func (uc *SyncMembershipChangeUseCase) Execute(ctx context.Context, cmd SyncMembershipChangeCommand) error {
	if !uc.dirEnabled {
		return nil
	}

	action := allocation.SyncAction(cmd.OldStatus, cmd.NewStatus)
	if cmd.Deleted {
		action = allocation.SyncActionForDeletion()
	}
	if action == allocation.DirectoryActionNone {
		return nil
	}

	a, err := uc.allocRepo.GetByID(ctx, cmd.AllocationID)
	if err != nil {
		return err
	}
	shortname, ok, err := a.Attribute(allocation.AttributeShortname)
	if err != nil {
		return err
	}
	if !ok {
		uc.logger.Warnw("allocation has no shortname attribute, skipping membership sync",
			"allocation_id", cmd.AllocationID)
		return nil
	}
	groupName := uc.allocCfg.ShortnamePrefix + shortname

	switch action {
	case allocation.DirectoryActionAdd:
		err = uc.directory.AddMember(ctx, groupName, cmd.Username, true)
	case allocation.DirectoryActionRemove:
		err = uc.directory.RemoveMember(ctx, groupName, cmd.Username, true)
	}
	if err != nil {
		return err
	}

	uc.logger.Infow("membership change synced to directory",
		"group", groupName,
		"username", cmd.Username,
		"action", string(action),
	)
	return nil
}
