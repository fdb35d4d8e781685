package allocation

import (
	"errors"
	"fmt"
	"sort"
)

// GIDRange is one half-open [Start, Stop) band of assignable group ids.
type GIDRange struct {
	Start int
	Stop  int
}

// Contains reports whether gid falls inside the range.
func (r GIDRange) Contains(gid int) bool {
	return gid >= r.Start && gid < r.Stop
}

// AllowedGIDRanges bounds the configurable ranges. Group ids outside this
// band collide with centrally-managed POSIX groups.
var AllowedGIDRanges = []GIDRange{
	{Start: 300000, Stop: 500000},
}

// ErrNoGIDAvailable is returned when every configured range is exhausted.
var ErrNoGIDAvailable = errors.New("no available GID in the configured ranges")

// NextGID returns the next assignable group id given the set of ids already
// assigned and the configured ascending, disjoint ranges. Assignment is
// strictly increasing: the candidate is one past the highest assigned id,
// promoted to the start of the next range when the current one is exhausted.
// Callers must evaluate this inside the same transaction as the allocation
// insert so that two concurrent provisions cannot observe the same set.
func NextGID(assigned []int, ranges []GIDRange) (int, error) {
	if len(ranges) == 0 {
		return 0, fmt.Errorf("no GID ranges configured")
	}

	maxAssigned := -1
	for _, gid := range assigned {
		if gid > maxAssigned {
			maxAssigned = gid
		}
	}

	candidate := ranges[0].Start
	if maxAssigned >= 0 {
		candidate = maxAssigned + 1
	}

	for _, r := range ranges {
		if candidate < r.Start {
			return r.Start, nil
		}
		if candidate < r.Stop {
			return candidate, nil
		}
	}
	return 0, ErrNoGIDAvailable
}

// ValidateGIDRanges checks the configured ranges: each must be non-empty,
// fall within AllowedGIDRanges, be in ascending order, and not overlap.
func ValidateGIDRanges(ranges []GIDRange) error {
	if len(ranges) == 0 {
		return fmt.Errorf("at least one GID range is required")
	}
	for _, r := range ranges {
		if r.Stop <= r.Start {
			return fmt.Errorf("GID range [%d, %d): stop is less than start", r.Start, r.Stop)
		}
		if !withinAllowed(r) {
			return fmt.Errorf("GID range [%d, %d): start or stop outside the allowed ranges", r.Start, r.Stop)
		}
	}
	if !sort.SliceIsSorted(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start }) {
		return fmt.Errorf("GID ranges must be in ascending order")
	}
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Start < ranges[i-1].Stop {
			return fmt.Errorf("GID ranges [%d, %d) and [%d, %d) overlap",
				ranges[i-1].Start, ranges[i-1].Stop, ranges[i].Start, ranges[i].Stop)
		}
	}
	return nil
}

func withinAllowed(r GIDRange) bool {
	for _, allowed := range AllowedGIDRanges {
		if r.Start >= allowed.Start && r.Stop <= allowed.Stop {
			return true
		}
	}
	return false
}
