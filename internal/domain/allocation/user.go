package allocation

import (
	"fmt"
	"time"
)

// User is one user's membership in an allocation. Every status change or
// deletion of a membership row must eventually be reflected in the directory
// group, at least once and idempotently; see SyncAction.
type User struct {
	id           uint
	allocationID uint
	username     string
	email        string
	status       UserStatus
	// expiration, when set, makes the membership eligible for pruning once
	// the timestamp has passed.
	expiration *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewUser creates an Active membership.
func NewUser(allocationID uint, username, email string, expiration *time.Time) (*User, error) {
	if allocationID == 0 {
		return nil, fmt.Errorf("allocation ID is required")
	}
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	now := time.Now().UTC()
	return &User{
		allocationID: allocationID,
		username:     username,
		email:        email,
		status:       UserStatusActive,
		expiration:   expiration,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructUser rebuilds a membership from persisted state.
func ReconstructUser(
	id, allocationID uint,
	username, email string,
	status UserStatus,
	expiration *time.Time,
	createdAt, updatedAt time.Time,
) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("membership ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid membership status %q", status)
	}
	return &User{
		id:           id,
		allocationID: allocationID,
		username:     username,
		email:        email,
		status:       status,
		expiration:   expiration,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (u *User) ID() uint               { return u.id }
func (u *User) AllocationID() uint     { return u.allocationID }
func (u *User) Username() string       { return u.username }
func (u *User) Email() string          { return u.email }
func (u *User) Status() UserStatus     { return u.status }
func (u *User) Expiration() *time.Time { return u.expiration }
func (u *User) CreatedAt() time.Time   { return u.createdAt }
func (u *User) UpdatedAt() time.Time   { return u.updatedAt }

// SetStatus changes the membership status. The caller is responsible for
// propagating the change to the directory via SyncAction.
func (u *User) SetStatus(status UserStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid membership status %q", status)
	}
	u.status = status
	u.updatedAt = time.Now().UTC()
	return nil
}

// SetID is called by the repository after the initial insert.
func (u *User) SetID(id uint) {
	u.id = id
}
