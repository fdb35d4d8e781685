package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/infrastructure/persistence/mappers"
	"allocmgr/internal/infrastructure/persistence/models"
	apperrors "allocmgr/internal/shared/errors"
	db "allocmgr/internal/shared/db"
)

type AllocationUserRepository struct {
	db     *gorm.DB
	mapper mappers.AllocationUserMapper
}

func NewAllocationUserRepository(db *gorm.DB) *AllocationUserRepository {
	return &AllocationUserRepository{
		db:     db,
		mapper: mappers.NewAllocationUserMapper(),
	}
}

func (r *AllocationUserRepository) Create(ctx context.Context, u *allocation.User) error {
	tx := db.GetTxFromContext(ctx, r.db)

	model := r.mapper.ToModel(u)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError(
				fmt.Sprintf("user %s is already a member of allocation %d", u.Username(), u.AllocationID()))
		}
		return fmt.Errorf("failed to save membership: %w", err)
	}
	u.SetID(model.ID)
	return nil
}

func (r *AllocationUserRepository) GetByID(ctx context.Context, id uint) (*allocation.User, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var model models.AllocationUserModel
	if err := tx.First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("membership %d not found", id))
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *AllocationUserRepository) Update(ctx context.Context, u *allocation.User) error {
	tx := db.GetTxFromContext(ctx, r.db)

	model := r.mapper.ToModel(u)
	result := tx.
		Model(&models.AllocationUserModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":     model.Status,
			"email":      model.Email,
			"expiration": model.Expiration,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("membership %d not found", model.ID))
	}
	return nil
}

func (r *AllocationUserRepository) Delete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Delete(&models.AllocationUserModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("membership %d not found", id))
	}
	return nil
}

func (r *AllocationUserRepository) ListByAllocation(
	ctx context.Context,
	allocationID uint,
	statuses ...allocation.UserStatus,
) ([]*allocation.User, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var rows []models.AllocationUserModel
	if err := tx.
		Where("allocation_id = ?", allocationID).
		Scopes(db.StatusIn(values...)).
		Order("username ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	users := make([]*allocation.User, len(rows))
	for i := range rows {
		u, err := r.mapper.ToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		users[i] = u
	}
	return users, nil
}

func (r *AllocationUserRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.
		Scopes(db.ExpiredBefore(now.UnixMilli())).
		Delete(&models.AllocationUserModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired memberships: %w", result.Error)
	}
	return result.RowsAffected, nil
}
