package usecases

import (
	"context"

	"allocmgr/internal/application/allocation/dto"
	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/logger"
)

type GetAllocationQuery struct {
	AllocationID uint
}

type GetAllocationUseCase struct {
	allocRepo allocation.Repository
	userRepo  allocation.UserRepository
	logger    logger.Interface
}

func NewGetAllocationUseCase(
	allocRepo allocation.Repository,
	userRepo allocation.UserRepository,
	logger logger.Interface,
) *GetAllocationUseCase {
	return &GetAllocationUseCase{
		allocRepo: allocRepo,
		userRepo:  userRepo,
		logger:    logger,
	}
}

func (uc *GetAllocationUseCase) Execute(ctx context.Context, query GetAllocationQuery) (*dto.AllocationDTO, error) {
	a, err := uc.allocRepo.GetByID(ctx, query.AllocationID)
	if err != nil {
		return nil, err
	}

	members, err := uc.userRepo.ListByAllocation(ctx, a.ID())
	if err != nil {
		return nil, err
	}

	out := &dto.AllocationDTO{
		ID:            a.ID(),
		ProjectID:     a.Project().ID,
		ProjectTitle:  a.Project().Title,
		PIUsername:    a.Project().PIUsername,
		Status:        string(a.Status()),
		StartDate:     a.StartDate(),
		EndDate:       a.EndDate(),
		Justification: a.Justification(),
		CreatedAt:     a.CreatedAt(),
	}

	for _, attr := range a.Attributes() {
		out.Attributes = append(out.Attributes, dto.AttributeDTO{
			Type:  string(attr.Type),
			Value: attr.Value,
			Usage: attr.Usage,
		})
	}

	for _, m := range members {
		out.Members = append(out.Members, dto.MemberDTO{
			Username:   m.Username(),
			Email:      m.Email(),
			Status:     string(m.Status()),
			Expiration: m.Expiration(),
		})
	}

	return out, nil
}
