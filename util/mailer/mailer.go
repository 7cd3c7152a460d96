// Package mailer sends plain-text mail over SMTP. Delivery failures are the
// caller's problem to log; nothing here is fatal to a request.
package mailer

import (
	"io"

	"gopkg.in/gomail.v2"
)

// Mailer is the delivery interface the services depend on. attachment may be
// nil for plain notifications.
type Mailer interface {
	Send(to, subject, body string, attachment []byte, filename string) error
}

type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, username, password string) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   username,
	}
}

func (s *SMTP) Send(to, subject, body string, attachment []byte, filename string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if len(attachment) > 0 {
		m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachment)
			return err
		}))
	}

	return s.dialer.DialAndSend(m)
}
