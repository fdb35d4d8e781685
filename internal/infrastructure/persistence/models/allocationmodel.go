package models

type AllocationModel struct {
	ID            uint   `gorm:"primaryKey"`
	ProjectID     uint   `gorm:"not null;index"`
	Status        string `gorm:"size:20;not null;index"`
	StartDate     int64  `gorm:"not null"`
	EndDate       *int64 `gorm:"index"`
	Justification string `gorm:"type:text;not null"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt     int64  `gorm:"autoUpdateTime:milli;not null"`

	// Note: No foreign key constraints or associations.
	// All relationships are managed by application business logic.
}

func (AllocationModel) TableName() string {
	return "allocations"
}

type AllocationAttributeModel struct {
	ID           uint   `gorm:"primaryKey"`
	AllocationID uint   `gorm:"not null;index:idx_alloc_attr_type,unique"`
	Type         string `gorm:"size:50;not null;index:idx_alloc_attr_type,unique;index:idx_attr_type_value,unique"`
	Value        string `gorm:"size:255;not null"`
	// UniqueValue mirrors Value for globally-unique attribute types (GID,
	// Shortname) and stays NULL otherwise, so the unique index rejects a
	// concurrent insert of the same shortname or GID without constraining
	// quota values.
	UniqueValue *string `gorm:"size:255;index:idx_attr_type_value,unique"`
	Usage       int64   `gorm:"not null;default:0"`
	CreatedAt   int64   `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt   int64   `gorm:"autoUpdateTime:milli;not null"`
}

func (AllocationAttributeModel) TableName() string {
	return "allocation_attributes"
}

type AllocationUserModel struct {
	ID           uint   `gorm:"primaryKey"`
	AllocationID uint   `gorm:"not null;index:idx_alloc_user,unique"`
	Username     string `gorm:"size:100;not null;index:idx_alloc_user,unique"`
	Email        string `gorm:"size:255"`
	Status       string `gorm:"size:20;not null;index"`
	Expiration   *int64 `gorm:"index"`
	CreatedAt    int64  `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt    int64  `gorm:"autoUpdateTime:milli;not null"`
}

func (AllocationUserModel) TableName() string {
	return "allocation_users"
}
