// Package notify delivers invitation notices to invitees.
package notify

import (
	"context"
	"log"

	"github.com/yukikurage/org-membership-api/internal/models"
)

// Notifier sends an invitation notice. Delivery failures are reported, never retried here.
type Notifier interface {
	NotifyInvitation(ctx context.Context, email, organizationName, inviterName string, role models.OrganizationRole) error
}

// LogNotifier writes the notice to the process log instead of sending mail.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyInvitation(ctx context.Context, email, organizationName, inviterName string, role models.OrganizationRole) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Printf("Invitation sent to %s: %s invited you to join %q as %s", email, inviterName, organizationName, role)
	return nil
}

// Noop discards every notice.
type Noop struct{}

func (Noop) NotifyInvitation(context.Context, string, string, string, models.OrganizationRole) error {
	return nil
}
