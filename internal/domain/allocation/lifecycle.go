package allocation

// NextLifecycleTransition evaluates the single next status transition for
// an allocation that is daysSinceEnd calendar days past its end date
// (negative while the end date is still in the future). Thresholds are
// strict: an allocation moves on only once the elapsed days exceed the
// configured threshold. Allocations observed mid-chain get only their next
// applicable transition; statuses never regress.
func NextLifecycleTransition(status Status, daysSinceEnd, removalDays, deletionDays int) (Status, bool) {
	switch status {
	case StatusActive:
		if daysSinceEnd > 0 {
			return StatusExpired, true
		}
	case StatusExpired:
		if daysSinceEnd > removalDays {
			return StatusRemoved, true
		}
	case StatusRemoved:
		if daysSinceEnd > deletionDays {
			return StatusDeleted, true
		}
	}
	return "", false
}
