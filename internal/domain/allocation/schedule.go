package allocation

import "fmt"

// NotificationStage is one of the four lifecycle notification kinds, in
// priority order.
type NotificationStage string

const (
	StageExpiryWarning   NotificationStage = "expiry_warning"
	StageRemovalWarning  NotificationStage = "removal_warning"
	StageDeletionWarning NotificationStage = "deletion_warning"
	StageDeletionNotice  NotificationStage = "deletion_notice"
)

// NotificationSchedule holds the configured day offsets per stage. Expiry
// warning offsets are positive days before the end date; the other three
// are zero or negative offsets counted from the end date (0 = on the day,
// -30 = thirty days after).
type NotificationSchedule struct {
	ExpiryWarning   []int
	RemovalWarning  []int
	DeletionWarning []int
	DeletionNotice  []int
}

// Validate rejects schedules with duplicate offsets within a stage or
// offsets with the wrong sign for their stage.
func (s NotificationSchedule) Validate() error {
	if err := validateOffsets("expiry_warning", s.ExpiryWarning, true); err != nil {
		return err
	}
	if err := validateOffsets("removal_warning", s.RemovalWarning, false); err != nil {
		return err
	}
	if err := validateOffsets("deletion_warning", s.DeletionWarning, false); err != nil {
		return err
	}
	return validateOffsets("deletion_notice", s.DeletionNotice, false)
}

func validateOffsets(stage string, offsets []int, beforeExpiry bool) error {
	seen := make(map[int]bool, len(offsets))
	for _, off := range offsets {
		if seen[off] {
			return fmt.Errorf("%s schedule: duplicate offset %d", stage, off)
		}
		seen[off] = true
		if beforeExpiry && off <= 0 {
			return fmt.Errorf("%s schedule: offset %d must be a positive number of days before expiry", stage, off)
		}
		if !beforeExpiry && off > 0 {
			return fmt.Errorf("%s schedule: offset %d must be zero or a negative number of days after expiry", stage, off)
		}
	}
	return nil
}

// SelectStage picks the single notification stage to fire for an allocation
// whose end date is delta days in the past (delta = today - end_date, so a
// future end date gives a negative delta). Every schedule is expressed in
// signed days-until-expiry (-delta): positive offsets fall before the end
// date, zero and negative offsets on or after it. Stages are evaluated in
// fixed priority order and at most one fires per allocation per run. The
// returned day count is the matched signed offset, which the notification
// reports verbatim.
func (s NotificationSchedule) SelectStage(delta int) (NotificationStage, int, bool) {
	daysUntil := -delta
	if containsOffset(s.ExpiryWarning, daysUntil) {
		return StageExpiryWarning, daysUntil, true
	}
	if containsOffset(s.RemovalWarning, daysUntil) {
		return StageRemovalWarning, daysUntil, true
	}
	if containsOffset(s.DeletionWarning, daysUntil) {
		return StageDeletionWarning, daysUntil, true
	}
	if containsOffset(s.DeletionNotice, daysUntil) {
		return StageDeletionNotice, daysUntil, true
	}
	return "", 0, false
}

func containsOffset(offsets []int, v int) bool {
	for _, off := range offsets {
		if off == v {
			return true
		}
	}
	return false
}
