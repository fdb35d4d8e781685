package usecases

import (
	"context"
	"fmt"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/logger"
)

type ReconcileMembershipsResult struct {
	AllocationsChecked int
	Discrepancies      []allocation.Discrepancy
}

// ReconcileMembershipsUseCase compares the database's Active member view of
// every Active allocation against the directory group's membership and
// reports drift. It never corrects anything: one admin email per run when
// any allocation differs, nothing otherwise.
type ReconcileMembershipsUseCase struct {
	allocRepo allocation.Repository
	userRepo  allocation.UserRepository
	directory DirectoryService
	notifier  NotificationService
	allocCfg  *config.AllocationConfig
	logger    logger.Interface
}

func NewReconcileMembershipsUseCase(
	allocRepo allocation.Repository,
	userRepo allocation.UserRepository,
	directory DirectoryService,
	notifier NotificationService,
	allocCfg *config.AllocationConfig,
	logger logger.Interface,
) *ReconcileMembershipsUseCase {
	return &ReconcileMembershipsUseCase{
		allocRepo: allocRepo,
		userRepo:  userRepo,
		directory: directory,
		notifier:  notifier,
		allocCfg:  allocCfg,
		logger:    logger,
	}
}

func (uc *ReconcileMembershipsUseCase) Execute(ctx context.Context) (*ReconcileMembershipsResult, error) {
	allocs, err := uc.allocRepo.ListByStatus(ctx, allocation.StatusActive)
	if err != nil {
		return nil, err
	}

	result := &ReconcileMembershipsResult{AllocationsChecked: len(allocs)}

	for _, a := range allocs {
		discrepancy, err := uc.check(ctx, a)
		if err != nil {
			return nil, err
		}
		if discrepancy != nil {
			result.Discrepancies = append(result.Discrepancies, *discrepancy)
		}
	}

	if len(result.Discrepancies) > 0 {
		uc.logger.Warnw("membership drift detected",
			"allocations_checked", result.AllocationsChecked,
			"allocations_with_drift", len(result.Discrepancies),
		)
		if err := uc.notifier.SendDiscrepancyReport(result.Discrepancies); err != nil {
			return nil, err
		}
	} else {
		uc.logger.Infow("memberships reconciled, no drift",
			"allocations_checked", result.AllocationsChecked)
	}

	return result, nil
}

func (uc *ReconcileMembershipsUseCase) check(ctx context.Context, a *allocation.Allocation) (*allocation.Discrepancy, error) {
	shortname, ok, err := a.Attribute(allocation.AttributeShortname)
	if err != nil {
		return nil, err
	}
	if !ok {
		uc.logger.Warnw("allocation has no shortname attribute, skipping reconciliation",
			"allocation_id", a.ID())
		return nil, nil
	}
	groupName := uc.allocCfg.ShortnamePrefix + shortname

	members, err := uc.userRepo.ListByAllocation(ctx, a.ID(), allocation.UserStatusActive)
	if err != nil {
		return nil, err
	}
	expected := make([]string, len(members))
	for i, m := range members {
		expected[i] = m.Username()
	}

	actual, err := uc.directory.GroupMembers(ctx, groupName)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory group %q: %w", groupName, err)
	}

	missing, extra := allocation.DiffMembers(expected, actual)
	if len(missing) == 0 && len(extra) == 0 {
		return nil, nil
	}

	return &allocation.Discrepancy{
		AllocationID:   a.ID(),
		GroupName:      groupName,
		ProjectTitle:   a.Project().Title,
		MissingMembers: missing,
		ExtraMembers:   extra,
	}, nil
}
