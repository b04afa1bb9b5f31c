package mailer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-mpc-treasury/internal/mailer"
	"github.com/kashguard/go-mpc-treasury/internal/mailer/transport"
)

func newMockedMailer(recipients ...string) (*mailer.Mailer, *transport.MockMailTransport) {
	mock := transport.NewMock()
	m := mailer.New(mailer.Config{
		DefaultSender:    "treasury@example.com",
		NotifyRecipients: recipients,
	}, mock)
	return m, mock
}

func TestMailer_Enabled(t *testing.T) {
	enabled, _ := newMockedMailer("ops@example.com")
	assert.True(t, enabled.Enabled())

	disabled, _ := newMockedMailer()
	assert.False(t, disabled.Enabled())

	var nilMailer *mailer.Mailer
	assert.False(t, nilMailer.Enabled())
}

func TestMailer_SendRequestCreated(t *testing.T) {
	m, mock := newMockedMailer("ops@example.com", "security@example.com")

	err := m.SendRequestCreated(context.Background(), "treasury-1", 7, "alice", 1, 2)
	require.NoError(t, err)

	mail := mock.GetLastSentMail()
	require.NotNil(t, mail)
	assert.Equal(t, "treasury@example.com", mail.From)
	assert.Equal(t, []string{"ops@example.com", "security@example.com"}, mail.To)
	assert.Equal(t, "[treasury treasury-1] sign request #7 created", mail.Subject)
	assert.Contains(t, string(mail.Text), "Member alice proposed sign request #7")
	assert.Contains(t, string(mail.Text), "Approvals: 1 of 2 required")
}

func TestMailer_SendRequestExecuted(t *testing.T) {
	m, mock := newMockedMailer("ops@example.com")

	err := m.SendRequestExecuted(context.Background(), "treasury-1", 7, "session-9")
	require.NoError(t, err)

	mail := mock.GetLastSentMail()
	require.NotNil(t, mail)
	assert.Equal(t, "[treasury treasury-1] sign request #7 executed", mail.Subject)
	assert.Contains(t, string(mail.Text), "Session: session-9")
}

func TestMailer_DisabledSendsNothing(t *testing.T) {
	m, mock := newMockedMailer()

	require.NoError(t, m.SendRequestCreated(context.Background(), "treasury-1", 1, "alice", 1, 2))
	require.NoError(t, m.SendRequestExecuted(context.Background(), "treasury-1", 1, "session-1"))

	assert.Nil(t, mock.GetLastSentMail())
	assert.Empty(t, mock.GetSentMails())
}
