package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/infrastructure/persistence/mappers"
	"allocmgr/internal/infrastructure/persistence/models"
	apperrors "allocmgr/internal/shared/errors"
	db "allocmgr/internal/shared/db"
)

// ProjectRepository reads project rows owned by the host application.
type ProjectRepository struct {
	db     *gorm.DB
	mapper mappers.AllocationMapper
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		mapper: mappers.NewAllocationMapper(),
	}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uint) (*allocation.ProjectRef, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var model models.ProjectModel
	if err := tx.First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("project %d not found", id))
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	ref := r.mapper.ProjectToDomain(&model)
	return &ref, nil
}
