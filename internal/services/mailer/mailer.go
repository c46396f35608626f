// Package mailer sends the password-reset mail over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
)

type Mailer struct {
	Host string
	Port string
	User string
	Pass string
	From string

	FrontendBaseURL string
}

func New(host, port, user, pass, from, frontendBaseURL string) *Mailer {
	return &Mailer{
		Host: host, Port: port, User: user, Pass: pass, From: from,
		FrontendBaseURL: frontendBaseURL,
	}
}

// SendPasswordReset mails the reset link. The token in the link is the
// plaintext one; only its hash is stored.
func (m *Mailer) SendPasswordReset(to, token string) error {
	if m.Host == "" {
		return fmt.Errorf("mailer: SMTP not configured")
	}

	resetLink := m.FrontendBaseURL + "/reset-password?token=" + token
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Restablecer tu contrasena\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n"+
			"<p>Hace clic en el siguiente enlace para restablecer tu contrasena:</p>"+
			"<a href=\"%s\">%s</a>"+
			"<p>El enlace expira en 1 hora.</p>\r\n",
		m.From, to, resetLink, resetLink,
	)

	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
