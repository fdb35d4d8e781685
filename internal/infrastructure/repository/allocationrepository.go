package repository

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/infrastructure/persistence/mappers"
	"allocmgr/internal/infrastructure/persistence/models"
	apperrors "allocmgr/internal/shared/errors"
	db "allocmgr/internal/shared/db"
)

type AllocationRepository struct {
	db     *gorm.DB
	mapper mappers.AllocationMapper
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{
		db:     db,
		mapper: mappers.NewAllocationMapper(),
	}
}

func (r *AllocationRepository) Create(ctx context.Context, a *allocation.Allocation) error {
	tx := db.GetTxFromContext(ctx, r.db)

	model := r.mapper.ToModel(a)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("allocation already exists")
		}
		return fmt.Errorf("failed to save allocation: %w", err)
	}
	a.SetID(model.ID)

	for _, attr := range r.mapper.AttributesToModels(a) {
		attr.AllocationID = model.ID
		if err := tx.Create(attr).Error; err != nil {
			if apperrors.IsDuplicateError(err) {
				return apperrors.NewConflictError(
					fmt.Sprintf("allocation %d already has attribute %q", model.ID, attr.Type))
			}
			return fmt.Errorf("failed to save allocation attribute %q: %w", attr.Type, err)
		}
	}

	return nil
}

func (r *AllocationRepository) GetByID(ctx context.Context, id uint) (*allocation.Allocation, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var model models.AllocationModel
	if err := tx.First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("allocation %d not found", id))
		}
		return nil, fmt.Errorf("failed to find allocation: %w", err)
	}

	return r.hydrate(tx, &model)
}

func (r *AllocationRepository) UpdateStatus(ctx context.Context, id uint, status allocation.Status) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.
		Model(&models.AllocationModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return fmt.Errorf("failed to update allocation status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("allocation %d not found", id))
	}
	return nil
}

func (r *AllocationRepository) ListByStatus(ctx context.Context, statuses ...allocation.Status) ([]*allocation.Allocation, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var rows []models.AllocationModel
	if err := tx.
		Model(&models.AllocationModel{}).
		Scopes(db.StatusIn(values...)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}

	return r.hydrateAll(tx, rows)
}

func (r *AllocationRepository) ListWithEndDate(ctx context.Context) ([]*allocation.Allocation, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var rows []models.AllocationModel
	if err := tx.
		Where("end_date IS NOT NULL").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list allocations with end date: %w", err)
	}

	return r.hydrateAll(tx, rows)
}

func (r *AllocationRepository) AssignedGIDs(ctx context.Context) ([]int, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var values []string
	if err := tx.
		Model(&models.AllocationAttributeModel{}).
		Where("type = ?", string(allocation.AttributeGID)).
		Pluck("value", &values).Error; err != nil {
		return nil, fmt.Errorf("failed to list assigned GIDs: %w", err)
	}

	gids := make([]int, 0, len(values))
	for _, v := range values {
		gid, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("non-numeric GID attribute value %q", v)
		}
		gids = append(gids, gid)
	}
	return gids, nil
}

func (r *AllocationRepository) ShortnameExists(ctx context.Context, shortname string) (bool, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var count int64
	if err := tx.
		Model(&models.AllocationAttributeModel{}).
		Where("type = ? AND value = ?", string(allocation.AttributeShortname), shortname).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check shortname: %w", err)
	}
	return count > 0, nil
}

func (r *AllocationRepository) hydrate(tx *gorm.DB, model *models.AllocationModel) (*allocation.Allocation, error) {
	var project models.ProjectModel
	if err := tx.First(&project, model.ProjectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError(
				fmt.Sprintf("project %d for allocation %d not found", model.ProjectID, model.ID))
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	var attrs []models.AllocationAttributeModel
	if err := tx.
		Where("allocation_id = ?", model.ID).
		Order("id ASC").
		Find(&attrs).Error; err != nil {
		return nil, fmt.Errorf("failed to load allocation attributes: %w", err)
	}

	return r.mapper.ToDomain(model, &project, attrs)
}

func (r *AllocationRepository) hydrateAll(tx *gorm.DB, rows []models.AllocationModel) ([]*allocation.Allocation, error) {
	out := make([]*allocation.Allocation, 0, len(rows))
	for i := range rows {
		a, err := r.hydrate(tx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
