package usecases

import (
	"context"
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/logger"
)

type PruneMembershipsResult struct {
	Deleted int64
}

// PruneMembershipsUseCase deletes membership rows whose expiration has
// passed. It is idempotent: a second run right after the first deletes
// nothing.
type PruneMembershipsUseCase struct {
	userRepo allocation.UserRepository
	now      func() time.Time
	logger   logger.Interface
}

func NewPruneMembershipsUseCase(userRepo allocation.UserRepository, logger logger.Interface) *PruneMembershipsUseCase {
	return &PruneMembershipsUseCase{
		userRepo: userRepo,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

func (uc *PruneMembershipsUseCase) Execute(ctx context.Context) (*PruneMembershipsResult, error) {
	deleted, err := uc.userRepo.DeleteExpired(ctx, uc.now())
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("expired memberships pruned", "deleted", deleted)
	return &PruneMembershipsResult{Deleted: deleted}, nil
}
