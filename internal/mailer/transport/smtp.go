package transport

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// SMTPMailTransportConfig configures the SMTP relay.
type SMTPMailTransportConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

// SMTPMailTransport sends mail through a plain or TLS SMTP relay.
type SMTPMailTransport struct {
	config SMTPMailTransportConfig
}

var _ MailTransporter = (*SMTPMailTransport)(nil)

// NewSMTP creates an SMTP transport from the given config.
func NewSMTP(config SMTPMailTransportConfig) *SMTPMailTransport {
	return &SMTPMailTransport{config: config}
}

func (m *SMTPMailTransport) SendMail(mail *email.Email) error {
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if m.config.UseTLS {
		return mail.SendWithStartTLS(addr, auth, &tls.Config{ServerName: m.config.Host})
	}

	return mail.Send(addr, auth)
}
