package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/logger"
)

type fakeSender struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

func (f *fakeSender) Send(to []string, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newTestNotifier(sender Sender, admins ...string) *Notifier {
	return NewNotifier(sender, &config.EmailConfig{AdminList: admins}, logger.NewLogger())
}

func TestNotifier_SendExpiryNotification(t *testing.T) {
	endDate := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		stage         allocation.NotificationStage
		days          int
		wantInSubject string
	}{
		{"warning before expiry", allocation.StageExpiryWarning, 30, "expires in 30 days"},
		{"expired", allocation.StageRemovalWarning, 0, "has expired"},
		{"deletion warning", allocation.StageDeletionWarning, -30, "scheduled for deletion"},
		{"deletion notice", allocation.StageDeletionNotice, -90, "has been deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			n := newTestNotifier(sender)

			err := n.SendExpiryNotification("pi@example.ac.uk", "Quantum Widgets", tt.stage, tt.days, endDate)
			require.NoError(t, err)

			require.Len(t, sender.sent, 1)
			assert.Equal(t, []string{"pi@example.ac.uk"}, sender.sent[0].to)
			assert.Contains(t, sender.sent[0].subject, tt.wantInSubject)
			assert.Contains(t, sender.sent[0].body, "Quantum Widgets")
		})
	}
}

func TestNotifier_SendDiscrepancyReport(t *testing.T) {
	t.Run("drift produces one summary email", func(t *testing.T) {
		sender := &fakeSender{}
		n := newTestNotifier(sender, "admin@example.ac.uk", "ops@example.ac.uk")

		err := n.SendDiscrepancyReport([]allocation.Discrepancy{
			{
				AllocationID:   1,
				GroupName:      "rdf-genome",
				ProjectTitle:   "Genome Pipeline",
				MissingMembers: []string{"alice"},
			},
			{
				AllocationID: 2,
				GroupName:    "rdf-widgets",
				ProjectTitle: "Quantum Widgets",
				ExtraMembers: []string{"bob", "carol"},
			},
		})
		require.NoError(t, err)

		require.Len(t, sender.sent, 1)
		mail := sender.sent[0]
		assert.Equal(t, []string{"admin@example.ac.uk", "ops@example.ac.uk"}, mail.to)
		assert.Contains(t, mail.subject, "(2)")
		assert.Contains(t, mail.body, "Group: rdf-genome (Genome Pipeline, allocation 1)")
		assert.Contains(t, mail.body, "Missing from directory: alice")
		assert.Contains(t, mail.body, "Unexpected in directory: bob, carol")
		assert.Contains(t, mail.body, "No automatic correction")
	})

	t.Run("no discrepancies means no email", func(t *testing.T) {
		sender := &fakeSender{}
		n := newTestNotifier(sender, "admin@example.ac.uk")

		require.NoError(t, n.SendDiscrepancyReport(nil))
		assert.Empty(t, sender.sent)
	})

	t.Run("no admin recipients drops the report without error", func(t *testing.T) {
		sender := &fakeSender{}
		n := newTestNotifier(sender)

		err := n.SendDiscrepancyReport([]allocation.Discrepancy{{GroupName: "rdf-genome", MissingMembers: []string{"alice"}}})
		require.NoError(t, err)
		assert.Empty(t, sender.sent)
	})
}
