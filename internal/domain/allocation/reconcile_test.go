package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffMembers(t *testing.T) {
	tests := []struct {
		name        string
		expected    []string
		actual      []string
		wantMissing []string
		wantExtra   []string
	}{
		{"member missing from directory", []string{"alice"}, nil, []string{"alice"}, nil},
		{"unexpected directory member", []string{"alice"}, []string{"alice", "bob"}, nil, []string{"bob"}},
		{"equal sets", []string{"alice", "bob"}, []string{"bob", "alice"}, nil, nil},
		{"both kinds of drift", []string{"alice", "carol"}, []string{"bob", "carol"}, []string{"alice"}, []string{"bob"}},
		{"results sorted", []string{"zed", "alice", "mid"}, nil, []string{"alice", "mid", "zed"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing, extra := DiffMembers(tt.expected, tt.actual)
			assert.Equal(t, tt.wantMissing, missing)
			assert.Equal(t, tt.wantExtra, extra)
		})
	}
}

func TestDiscrepancyHasDrift(t *testing.T) {
	assert.False(t, Discrepancy{}.HasDrift())
	assert.True(t, Discrepancy{MissingMembers: []string{"alice"}}.HasDrift())
	assert.True(t, Discrepancy{ExtraMembers: []string{"bob"}}.HasDrift())
}
