package migration

import (
	"allocmgr/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ProjectModel{},
		&models.AllocationModel{},
		&models.AllocationAttributeModel{},
		&models.AllocationUserModel{},
		&models.TaskModel{},
	}
}
