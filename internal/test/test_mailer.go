package test

import (
	"testing"

	"github.com/jordan-wright/email"
	"github.com/kashguard/go-mpc-treasury/internal/mailer"
	"github.com/kashguard/go-mpc-treasury/internal/mailer/transport"
)

const (
	TestMailerDefaultSender = "treasury-test@example.com"
	TestMailerRecipient     = "ops@example.com"
)

// NewTestMailer returns a mailer backed by the mock transport with one
// notification recipient, so Enabled() is true and sent mails are recorded.
func NewTestMailer(t *testing.T) *mailer.Mailer {
	t.Helper()

	return mailer.New(mailer.Config{
		DefaultSender:    TestMailerDefaultSender,
		NotifyRecipients: []string{TestMailerRecipient},
	}, transport.NewMock())
}

func GetTestMailerMockTransport(t *testing.T, m *mailer.Mailer) *transport.MockMailTransport {
	t.Helper()
	mt, ok := m.Transport.(*transport.MockMailTransport)
	if !ok {
		t.Fatalf("invalid mailer transport type, got %T, want *transport.MockMailTransport", m.Transport)
	}

	return mt
}

func GetLastSentMail(t *testing.T, m *mailer.Mailer) *email.Email {
	t.Helper()

	mt := GetTestMailerMockTransport(t, m)
	return mt.GetLastSentMail()
}

func GetSentMails(t *testing.T, m *mailer.Mailer) []*email.Email {
	t.Helper()

	mt := GetTestMailerMockTransport(t, m)
	return mt.GetSentMails()
}
