package transport

import (
	"sync"

	"github.com/jordan-wright/email"
)

// MockMailTransport records mails instead of sending them.
type MockMailTransport struct {
	mu    sync.RWMutex
	mails []*email.Email
}

var _ MailTransporter = (*MockMailTransport)(nil)

// NewMock creates an in-memory transport for tests and local development.
func NewMock() *MockMailTransport {
	return &MockMailTransport{}
}

func (m *MockMailTransport) SendMail(mail *email.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, mail)
	return nil
}

// GetSentMails returns all recorded mails.
func (m *MockMailTransport) GetSentMails() []*email.Email {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*email.Email, len(m.mails))
	copy(out, m.mails)
	return out
}

// GetLastSentMail returns the most recent mail or nil.
func (m *MockMailTransport) GetLastSentMail() *email.Email {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.mails) == 0 {
		return nil
	}
	return m.mails[len(m.mails)-1]
}
