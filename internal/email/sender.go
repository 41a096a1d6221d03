// Package email envía notificaciones del login por SMTP.
package email

import (
	"crypto/tls"
	"fmt"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/loginjohn/internal/observability/logger"
)

// Sender envía notificaciones a usuarios. Nil-safe: las notificaciones son
// best-effort y el servicio funciona sin SMTP configurado.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// Send envía un email con cuerpo HTML y texto plano.
func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	log := logger.L().With(
		logger.Component("SMTPSender"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
		logger.String("to", to),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	// multipart/alternative cuando hay ambos cuerpos
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}

	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent")
	return nil
}

// SendPasswordChanged notifica al usuario que su password fue cambiada.
func SendPasswordChanged(s Sender, to, loginName string, at time.Time) error {
	if s == nil || to == "" {
		return nil
	}
	when := at.UTC().Format(time.RFC1123)
	text := fmt.Sprintf(
		"Hi %s,\n\nThe password of your account was changed on %s.\n\nIf this wasn't you, contact your administrator immediately.\n",
		loginName, when,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>The password of your account was changed on <b>%s</b>.</p><p>If this wasn't you, contact your administrator immediately.</p>",
		loginName, when,
	)
	return s.Send(to, "Your password was changed", html, text)
}
