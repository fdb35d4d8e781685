package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule() NotificationSchedule {
	return NotificationSchedule{
		ExpiryWarning:   []int{90, 60, 30, 7, 1},
		RemovalWarning:  []int{0, -14},
		DeletionWarning: []int{-30, -60},
		DeletionNotice:  []int{-90},
	}
}

func TestSelectStage_ExpiryWarningNinetyDaysBefore(t *testing.T) {
	// end_date = today + 90 means delta = -90.
	stage, days, ok := testSchedule().SelectStage(-90)

	require.True(t, ok)
	assert.Equal(t, StageExpiryWarning, stage)
	assert.Equal(t, 90, days)
}

func TestSelectStage_RemovalWarningOnExpiryDay(t *testing.T) {
	stage, days, ok := testSchedule().SelectStage(0)

	require.True(t, ok)
	assert.Equal(t, StageRemovalWarning, stage)
	assert.Equal(t, 0, days)
}

func TestSelectStage_AllConfiguredOffsets(t *testing.T) {
	tests := []struct {
		name      string
		delta     int
		wantStage NotificationStage
		wantDays  int
	}{
		{"one day before expiry", -1, StageExpiryWarning, 1},
		{"week before expiry", -7, StageExpiryWarning, 7},
		{"two weeks after expiry", 14, StageRemovalWarning, -14},
		{"thirty days after expiry", 30, StageDeletionWarning, -30},
		{"sixty days after expiry", 60, StageDeletionWarning, -60},
		{"ninety days after expiry", 90, StageDeletionNotice, -90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, days, ok := testSchedule().SelectStage(tt.delta)
			require.True(t, ok)
			assert.Equal(t, tt.wantStage, stage)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestSelectStage_NoMatch(t *testing.T) {
	for _, delta := range []int{-45, -2, 1, 15, 100} {
		_, _, ok := testSchedule().SelectStage(delta)
		assert.False(t, ok, "delta %d should not match any stage", delta)
	}
}

func TestSelectStage_PriorityOrder(t *testing.T) {
	// A pathological schedule where two stages share a calendar day: the
	// earlier stage wins and only one notification fires.
	s := NotificationSchedule{
		ExpiryWarning:  []int{0},
		RemovalWarning: []int{0},
	}

	stage, days, ok := s.SelectStage(0)

	require.True(t, ok)
	assert.Equal(t, StageExpiryWarning, stage)
	assert.Equal(t, 0, days)
}

func TestScheduleValidate(t *testing.T) {
	require.NoError(t, testSchedule().Validate())

	t.Run("duplicate offset", func(t *testing.T) {
		s := testSchedule()
		s.ExpiryWarning = []int{30, 30}
		err := s.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("expiry warning must be before expiry", func(t *testing.T) {
		s := testSchedule()
		s.ExpiryWarning = []int{0}
		require.Error(t, s.Validate())
	})

	t.Run("removal warning must not be before expiry", func(t *testing.T) {
		s := testSchedule()
		s.RemovalWarning = []int{7}
		require.Error(t, s.Validate())
	})
}
