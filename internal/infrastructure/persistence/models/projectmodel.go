package models

type ProjectModel struct {
	ID         uint   `gorm:"primaryKey"`
	Title      string `gorm:"size:255;not null"`
	PIUsername string `gorm:"size:100;not null;index"`
	PIEmail    string `gorm:"size:255;not null"`
	Faculty    string `gorm:"size:100;not null"`
	Department string `gorm:"size:100;not null"`
	CreatedAt  int64  `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt  int64  `gorm:"autoUpdateTime:milli;not null"`
}

func (ProjectModel) TableName() string {
	return "projects"
}
