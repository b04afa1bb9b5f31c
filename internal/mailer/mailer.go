// Package mailer sends operational notifications about treasury activity to
// a configured operator mailbox. Delivery failures are never allowed to fail
// the triggering operation; the caller logs and moves on.
package mailer

import (
	"context"
	"fmt"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"

	"github.com/kashguard/go-mpc-treasury/internal/mailer/transport"
	"github.com/kashguard/go-mpc-treasury/internal/util"
)

// Config controls sender identity and recipients.
type Config struct {
	DefaultSender    string
	NotifyRecipients []string
}

// Mailer assembles and sends notification mails through a MailTransporter.
type Mailer struct {
	config Config

	// Transport is exported so tests can reach the mock transport.
	Transport transport.MailTransporter
}

// New creates a Mailer.
func New(config Config, transporter transport.MailTransporter) *Mailer {
	return &Mailer{config: config, Transport: transporter}
}

// Enabled reports whether notifications have at least one recipient.
func (m *Mailer) Enabled() bool {
	return m != nil && len(m.config.NotifyRecipients) > 0
}

// SendRequestCreated notifies that a new sign request awaits votes.
func (m *Mailer) SendRequestCreated(ctx context.Context, treasuryID string, requestID uint64, proposer string, approvals int, threshold int) error {
	subject := fmt.Sprintf("[treasury %s] sign request #%d created", treasuryID, requestID)
	body := fmt.Sprintf(
		"Member %s proposed sign request #%d on treasury %s.\n\nApprovals: %d of %d required.\n",
		proposer, requestID, treasuryID, approvals, threshold,
	)
	return m.send(ctx, subject, body)
}

// SendRequestExecuted notifies that a request was submitted for signing.
func (m *Mailer) SendRequestExecuted(ctx context.Context, treasuryID string, requestID uint64, sessionID string) error {
	subject := fmt.Sprintf("[treasury %s] sign request #%d executed", treasuryID, requestID)
	body := fmt.Sprintf(
		"Sign request #%d on treasury %s was submitted to the signing network.\n\nSession: %s\n",
		requestID, treasuryID, sessionID,
	)
	return m.send(ctx, subject, body)
}

func (m *Mailer) send(ctx context.Context, subject string, body string) error {
	if !m.Enabled() {
		return nil
	}

	mail := email.NewEmail()
	mail.From = m.config.DefaultSender
	mail.To = m.config.NotifyRecipients
	mail.Subject = subject
	mail.Text = []byte(body)

	if err := m.Transport.SendMail(mail); err != nil {
		return errors.Wrap(err, "failed to send notification mail")
	}

	util.LogFromContext(ctx).Debug().Str("subject", subject).Int("recipients", len(mail.To)).Msg("Notification mail sent")

	return nil
}
