package mappers

import (
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/infrastructure/persistence/models"
)

// AllocationUserMapper handles the conversion between membership domain
// entities and persistence models.
type AllocationUserMapper interface {
	ToModel(u *allocation.User) *models.AllocationUserModel
	ToDomain(model *models.AllocationUserModel) (*allocation.User, error)
}

type AllocationUserMapperImpl struct{}

func NewAllocationUserMapper() AllocationUserMapper {
	return &AllocationUserMapperImpl{}
}

func (m *AllocationUserMapperImpl) ToModel(u *allocation.User) *models.AllocationUserModel {
	model := &models.AllocationUserModel{
		ID:           u.ID(),
		AllocationID: u.AllocationID(),
		Username:     u.Username(),
		Email:        u.Email(),
		Status:       string(u.Status()),
		CreatedAt:    u.CreatedAt().UnixMilli(),
		UpdatedAt:    u.UpdatedAt().UnixMilli(),
	}

	if u.Expiration() != nil {
		exp := u.Expiration().UnixMilli()
		model.Expiration = &exp
	}

	return model
}

func (m *AllocationUserMapperImpl) ToDomain(model *models.AllocationUserModel) (*allocation.User, error) {
	var expiration *time.Time
	if model.Expiration != nil {
		t := time.UnixMilli(*model.Expiration).UTC()
		expiration = &t
	}

	return allocation.ReconstructUser(
		model.ID,
		model.AllocationID,
		model.Username,
		model.Email,
		allocation.UserStatus(model.Status),
		expiration,
		time.UnixMilli(model.CreatedAt).UTC(),
		time.UnixMilli(model.UpdatedAt).UTC(),
	)
}
