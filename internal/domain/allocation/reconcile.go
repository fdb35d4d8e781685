package allocation

import "sort"

// Discrepancy records the membership drift of one allocation between the
// database and the directory group. It lives only for the duration of one
// reconciliation run and the resulting report.
type Discrepancy struct {
	AllocationID   uint
	GroupName      string
	ProjectTitle   string
	MissingMembers []string
	ExtraMembers   []string
}

// HasDrift reports whether the discrepancy carries any difference.
func (d Discrepancy) HasDrift() bool {
	return len(d.MissingMembers) > 0 || len(d.ExtraMembers) > 0
}

// DiffMembers compares the expected member set against the directory's
// actual member set. Both result slices are sorted for deterministic
// reporting.
func DiffMembers(expected, actual []string) (missing, extra []string) {
	expectedSet := make(map[string]struct{}, len(expected))
	for _, u := range expected {
		expectedSet[u] = struct{}{}
	}
	actualSet := make(map[string]struct{}, len(actual))
	for _, u := range actual {
		actualSet[u] = struct{}{}
	}

	for u := range expectedSet {
		if _, ok := actualSet[u]; !ok {
			missing = append(missing, u)
		}
	}
	for u := range actualSet {
		if _, ok := expectedSet[u]; !ok {
			extra = append(extra, u)
		}
	}

	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}
