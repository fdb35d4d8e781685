package models

import "gorm.io/datatypes"

type TaskModel struct {
	ID         string         `gorm:"primaryKey;size:36"`
	Kind       string         `gorm:"size:50;not null;index"`
	Status     string         `gorm:"size:20;not null;index"`
	Payload    datatypes.JSON `gorm:"not null"`
	Result     datatypes.JSON
	Error      string `gorm:"type:text"`
	CreatedAt  int64  `gorm:"autoCreateTime:milli;not null;index"`
	UpdatedAt  int64  `gorm:"autoUpdateTime:milli;not null"`
	StartedAt  *int64
	FinishedAt *int64
}

func (TaskModel) TableName() string {
	return "tasks"
}
