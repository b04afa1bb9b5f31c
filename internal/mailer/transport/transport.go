// Package transport abstracts mail delivery so the mailer can run against a
// real SMTP relay in production and an in-memory mock in tests.
package transport

import "github.com/jordan-wright/email"

// MailTransporter delivers a fully assembled mail.
type MailTransporter interface {
	SendMail(mail *email.Email) error
}
