package usecases

import (
	"context"
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/biztime"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/logger"
)

type TransitionLifecycleResult struct {
	Expired int
	Removed int
	Deleted int
}

// TransitionLifecycleUseCase advances each allocation at most one lifecycle
// step per run, based on days elapsed since the end date. The transition to
// Removed is the one point where Active members are removed from the
// directory group; later transitions make no directory calls.
type TransitionLifecycleUseCase struct {
	allocRepo allocation.Repository
	userRepo  allocation.UserRepository
	directory DirectoryService
	allocCfg  *config.AllocationConfig
	lifecycle *config.LifecycleConfig
	dirEnabled bool
	now        func() time.Time
	logger     logger.Interface
}

func NewTransitionLifecycleUseCase(
	allocRepo allocation.Repository,
	userRepo allocation.UserRepository,
	directory DirectoryService,
	allocCfg *config.AllocationConfig,
	lifecycle *config.LifecycleConfig,
	dirEnabled bool,
	logger logger.Interface,
) *TransitionLifecycleUseCase {
	return &TransitionLifecycleUseCase{
		allocRepo:  allocRepo,
		userRepo:   userRepo,
		directory:  directory,
		allocCfg:   allocCfg,
		lifecycle:  lifecycle,
		dirEnabled: dirEnabled,
		now:        biztime.Today,
		logger:     logger,
	}
}

func (uc *TransitionLifecycleUseCase) Execute(ctx context.Context) (*TransitionLifecycleResult, error) {
	allocs, err := uc.allocRepo.ListByStatus(ctx,
		allocation.StatusActive, allocation.StatusExpired, allocation.StatusRemoved)
	if err != nil {
		return nil, err
	}

	today := uc.now()
	result := &TransitionLifecycleResult{}

	for _, a := range allocs {
		endDate := a.EndDate()
		if endDate == nil {
			continue
		}

		daysSinceEnd := biztime.DaysBetween(*endDate, today)
		next, ok := allocation.NextLifecycleTransition(
			a.Status(), daysSinceEnd, uc.lifecycle.RemovalDays, uc.lifecycle.DeletionDays)
		if !ok {
			continue
		}

		if err := uc.transition(ctx, a, next); err != nil {
			uc.logger.Errorw("lifecycle transition failed",
				"allocation_id", a.ID(),
				"from", string(a.Status()),
				"to", string(next),
				"error", err,
			)
			continue
		}

		switch next {
		case allocation.StatusExpired:
			result.Expired++
		case allocation.StatusRemoved:
			result.Removed++
		case allocation.StatusDeleted:
			result.Deleted++
		}
	}

	uc.logger.Infow("lifecycle transition run finished",
		"expired", result.Expired,
		"removed", result.Removed,
		"deleted", result.Deleted,
	)
	return result, nil
}

func (uc *TransitionLifecycleUseCase) transition(ctx context.Context, a *allocation.Allocation, next allocation.Status) error {
	// Member removal happens before the status write so a directory failure
	// leaves the allocation eligible for retry on the next run.
	if next == allocation.StatusRemoved {
		if err := uc.removeMembers(ctx, a); err != nil {
			return err
		}
	}

	if err := uc.allocRepo.UpdateStatus(ctx, a.ID(), next); err != nil {
		return err
	}

	uc.logger.Infow("allocation transitioned",
		"allocation_id", a.ID(),
		"to", string(next),
	)
	return nil
}

// removeMembers takes every Active member out of the directory group,
// tolerating members that are already absent.
func (uc *TransitionLifecycleUseCase) removeMembers(ctx context.Context, a *allocation.Allocation) error {
	if !uc.dirEnabled {
		return nil
	}

	shortname, ok, err := a.Attribute(allocation.AttributeShortname)
	if err != nil {
		return err
	}
	if !ok {
		uc.logger.Warnw("allocation has no shortname attribute, skipping member removal",
			"allocation_id", a.ID())
		return nil
	}
	groupName := uc.allocCfg.ShortnamePrefix + shortname

	members, err := uc.userRepo.ListByAllocation(ctx, a.ID(), allocation.UserStatusActive)
	if err != nil {
		return err
	}

	for _, m := range members {
		if err := uc.directory.RemoveMember(ctx, groupName, m.Username(), true); err != nil {
			return err
		}
	}
	return nil
}
