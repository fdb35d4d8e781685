package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncAction(t *testing.T) {
	tests := []struct {
		name      string
		oldStatus UserStatus
		newStatus UserStatus
		want      DirectoryAction
	}{
		{"new active member added", "", UserStatusActive, DirectoryActionAdd},
		{"active to active is noop", UserStatusActive, UserStatusActive, DirectoryActionNone},
		{"inactive to inactive is noop", UserStatusInactive, UserStatusInactive, DirectoryActionNone},
		{"active to inactive removed", UserStatusActive, UserStatusInactive, DirectoryActionRemove},
		{"active to removed removed", UserStatusActive, UserStatusRemoved, DirectoryActionRemove},
		{"inactive to active added", UserStatusInactive, UserStatusActive, DirectoryActionAdd},
		{"removed to active added", UserStatusRemoved, UserStatusActive, DirectoryActionAdd},
		{"inactive to removed removed", UserStatusInactive, UserStatusRemoved, DirectoryActionRemove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SyncAction(tt.oldStatus, tt.newStatus))
		})
	}
}

func TestSyncActionForDeletion(t *testing.T) {
	assert.Equal(t, DirectoryActionRemove, SyncActionForDeletion())
}
