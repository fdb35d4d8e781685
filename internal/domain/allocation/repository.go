package allocation

import (
	"context"
	"time"
)

// Repository persists allocations and their attributes.
type Repository interface {
	// Create inserts the allocation and its current attributes in one go.
	Create(ctx context.Context, alloc *Allocation) error
	GetByID(ctx context.Context, id uint) (*Allocation, error)
	// UpdateStatus persists a lifecycle transition.
	UpdateStatus(ctx context.Context, id uint, status Status) error
	// ListByStatus returns allocations (with attributes) in any of the
	// given statuses.
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Allocation, error)
	// ListWithEndDate returns allocations (with attributes) that have a
	// non-null end date, regardless of status.
	ListWithEndDate(ctx context.Context) ([]*Allocation, error)
	// AssignedGIDs returns every GID attribute value currently assigned.
	AssignedGIDs(ctx context.Context) ([]int, error)
	// ShortnameExists reports whether any allocation carries the shortname.
	ShortnameExists(ctx context.Context, shortname string) (bool, error)
}

// UserRepository persists allocation memberships.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uint) error
	// ListByAllocation returns memberships of an allocation, optionally
	// filtered by status.
	ListByAllocation(ctx context.Context, allocationID uint, statuses ...UserStatus) ([]*User, error)
	// DeleteExpired removes memberships whose expiration is strictly
	// before now, returning how many were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProjectRepository resolves owning-project references. Projects are owned
// by the host application; this is read-only here.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*ProjectRef, error)
}
