package allocation

// DirectoryAction is the directory-group operation implied by a membership
// change.
type DirectoryAction string

const (
	DirectoryActionNone   DirectoryAction = "none"
	DirectoryActionAdd    DirectoryAction = "add"
	DirectoryActionRemove DirectoryAction = "remove"
)

// SyncAction maps a membership status change to the directory operation that
// must follow: a membership becoming Active means the user belongs in the
// group, any other landing status means they do not. An unchanged status
// needs no directory call. Pass the zero UserStatus as oldStatus for a newly
// created membership. Both operations are applied idempotently by the
// caller, so at-least-once delivery of the action is safe.
func SyncAction(oldStatus, newStatus UserStatus) DirectoryAction {
	if oldStatus == newStatus {
		return DirectoryActionNone
	}
	if newStatus == UserStatusActive {
		return DirectoryActionAdd
	}
	return DirectoryActionRemove
}

// SyncActionForDeletion is the directory operation implied by deleting a
// membership row outright.
func SyncActionForDeletion() DirectoryAction {
	return DirectoryActionRemove
}
