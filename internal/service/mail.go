package service

import (
	"bitwise74/unmask-api/internal/model"
	"bytes"
	"errors"
	"fmt"
	"text/template"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers plain text emails. Callers treat failures as non fatal
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type SMTPMailer struct {
	d      *gomail.Dialer
	sender string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		d:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		sender: cfg.Sender,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if to == m.sender {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	return nil
}

// LogMailer writes mails to the log instead of sending them. Used when no
// SMTP server is configured
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	zap.L().Info("Mail delivery disabled, logging message instead",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

var (
	verificationTmpl = template.Must(template.New("verification").Parse(`Hello {{.Name}},

Welcome to Unmask.AI! Please verify your email address by entering the following code:

Verification Code: {{.Code}}

This code will expire in {{.Minutes}} minutes.

If you didn't create an account with Unmask.AI, please ignore this email.

Best regards,
The Unmask.AI Team
`))

	resetTmpl = template.Must(template.New("reset").Parse(`Hello {{.Name}},

You requested to reset your password for your Unmask.AI account.

Reset Code: {{.Code}}

This code will expire in {{.Minutes}} minutes.

If you didn't request a password reset, please ignore this email and your password will remain unchanged.

Best regards,
The Unmask.AI Team
`))
)

type mailData struct {
	Name    string
	Code    string
	Minutes int
}

// SendVerificationMail sends code to the given address, which isn't always
// u.Email (email changes verify the new address)
func SendVerificationMail(m Mailer, u *model.User, to, code string, ttl time.Duration) error {
	return render(m, to, "Verify your Unmask.AI account", verificationTmpl, mailData{
		Name:    u.FirstName,
		Code:    code,
		Minutes: int(ttl.Minutes()),
	})
}

func SendPasswordResetMail(m Mailer, u *model.User, code string, ttl time.Duration) error {
	return render(m, u.Email, "Reset your Unmask.AI password", resetTmpl, mailData{
		Name:    u.FirstName,
		Code:    code,
		Minutes: int(ttl.Minutes()),
	})
}

func render(m Mailer, to, subject string, t *template.Template, data mailData) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s mail, %w", t.Name(), err)
	}

	return m.Send(to, subject, buf.String())
}
