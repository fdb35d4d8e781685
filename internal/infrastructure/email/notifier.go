package email

import (
	"fmt"
	"strings"
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/logger"
)

// Notifier composes and sends the lifecycle and reconciliation emails.
type Notifier struct {
	sender Sender
	admins []string
	logger logger.Interface
}

func NewNotifier(sender Sender, cfg *config.EmailConfig, log logger.Interface) *Notifier {
	return &Notifier{
		sender: sender,
		admins: cfg.AdminList,
		logger: log,
	}
}

// SendExpiryNotification sends the single matching stage's email to the
// project PI. days is the signed day count relative to the end date:
// positive before expiry, zero or negative at or after it.
func (n *Notifier) SendExpiryNotification(
	to, projectTitle string,
	stage allocation.NotificationStage,
	days int,
	endDate time.Time,
) error {
	subject, body := expiryMessage(projectTitle, stage, days, endDate)
	if err := n.sender.Send([]string{to}, subject, body); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", stage, err)
	}
	n.logger.Infow("expiry notification sent",
		"to", to,
		"stage", string(stage),
		"days", days,
	)
	return nil
}

// SendDiscrepancyReport mails administrators one summary covering every
// allocation with membership drift. The body is deterministic: groups in
// input order, usernames sorted within each list.
func (n *Notifier) SendDiscrepancyReport(discrepancies []allocation.Discrepancy) error {
	if len(discrepancies) == 0 {
		return nil
	}
	if len(n.admins) == 0 {
		n.logger.Warnw("discrepancies found but no admin recipients configured",
			"count", len(discrepancies))
		return nil
	}

	var b strings.Builder
	b.WriteString("Membership discrepancies were found between the allocation database and the directory service.\n")
	for _, d := range discrepancies {
		fmt.Fprintf(&b, "\nGroup: %s (%s, allocation %d)\n", d.GroupName, d.ProjectTitle, d.AllocationID)
		fmt.Fprintf(&b, "  Missing from directory: %s\n", joinOrNone(d.MissingMembers))
		fmt.Fprintf(&b, "  Unexpected in directory: %s\n", joinOrNone(d.ExtraMembers))
	}
	b.WriteString("\nNo automatic correction has been made.\n")

	subject := fmt.Sprintf("Research group membership discrepancies (%d)", len(discrepancies))
	if err := n.sender.Send(n.admins, subject, b.String()); err != nil {
		return fmt.Errorf("failed to send discrepancy report: %w", err)
	}
	n.logger.Infow("discrepancy report sent", "groups", len(discrepancies))
	return nil
}

// SendAdminAlert mails administrators a free-form alert, used for
// background job failures.
func (n *Notifier) SendAdminAlert(subject, body string) error {
	if len(n.admins) == 0 {
		n.logger.Warnw("admin alert dropped, no recipients configured", "subject", subject)
		return nil
	}
	if err := n.sender.Send(n.admins, subject, body); err != nil {
		return fmt.Errorf("failed to send admin alert: %w", err)
	}
	return nil
}

func expiryMessage(projectTitle string, stage allocation.NotificationStage, days int, endDate time.Time) (string, string) {
	date := endDate.Format("2 January 2006")

	switch stage {
	case allocation.StageExpiryWarning:
		return fmt.Sprintf("Storage allocation for %s expires in %d days", projectTitle, days),
			fmt.Sprintf(
				"The research group storage allocation for %s expires on %s, in %d days.\n\n"+
					"Please renew the allocation before the end date if the group still needs the storage.\n",
				projectTitle, date, days)

	case allocation.StageRemovalWarning:
		return fmt.Sprintf("Storage allocation for %s has expired", projectTitle),
			fmt.Sprintf(
				"The research group storage allocation for %s expired on %s.\n\n"+
					"Group members will lose access soon. Renew the allocation to keep the storage.\n",
				projectTitle, date)

	case allocation.StageDeletionWarning:
		return fmt.Sprintf("Storage for %s is scheduled for deletion", projectTitle),
			fmt.Sprintf(
				"The research group storage allocation for %s expired on %s and access has been removed.\n\n"+
					"The data is scheduled for deletion. Contact support urgently if it is still needed.\n",
				projectTitle, date)

	default: // StageDeletionNotice
		return fmt.Sprintf("Storage for %s has been deleted", projectTitle),
			fmt.Sprintf(
				"The research group storage allocation for %s expired on %s.\n\n"+
					"The retention period has ended and the data has been deleted.\n",
				projectTitle, date)
	}
}

func joinOrNone(usernames []string) string {
	if len(usernames) == 0 {
		return "(none)"
	}
	return strings.Join(usernames, ", ")
}
