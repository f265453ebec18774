package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends plain HTML notifications over SMTP. A zero-value host
// disables sending, so callers can fire-and-forget.
type Mailer struct {
	host     string
	port     string
	sender   string
	password string
}

func New(host, port, sender, password string) *Mailer {
	return &Mailer{host: host, port: port, sender: sender, password: password}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.host != "" && m.sender != ""
}

func (m *Mailer) Send(to []string, subject, htmlBody string) error {
	if !m.Enabled() {
		return nil
	}
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Coachly <%s>\r\n", m.sender)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", m.sender, m.password, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.sender, to, []byte(msg))
}
