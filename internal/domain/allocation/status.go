package allocation

// Status is the lifecycle state of an allocation. Transitions are monotonic:
// Active -> Expired -> Removed -> Deleted.
type Status string

const (
	StatusActive  Status = "Active"
	StatusExpired Status = "Expired"
	StatusRemoved Status = "Removed"
	StatusDeleted Status = "Deleted"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusRemoved, StatusDeleted:
		return true
	}
	return false
}

// rank orders statuses along the lifecycle chain.
func (s Status) rank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusExpired:
		return 1
	case StatusRemoved:
		return 2
	case StatusDeleted:
		return 3
	}
	return -1
}

// CanTransitionTo reports whether moving to next respects monotonicity and
// advances exactly one step.
func (s Status) CanTransitionTo(next Status) bool {
	return s.rank() >= 0 && next.rank() == s.rank()+1
}

// UserStatus is the state of one user's membership in an allocation.
type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
	UserStatusRemoved  UserStatus = "Removed"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusRemoved:
		return true
	}
	return false
}
