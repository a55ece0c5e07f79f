package utils

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// ErrMailerNotConfigured is returned when SMTP settings are missing
var ErrMailerNotConfigured = errors.New("SMTP is not configured")

// Mailer sends mail through the SMTP server configured in the environment
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewMailer reads SMTP_HOST, SMTP_PORT (default 2525), SMTP_USER, SMTP_PASS and SMTP_FROM
func NewMailer() *Mailer {
	port := 2525
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}
	return &Mailer{
		host: os.Getenv("SMTP_HOST"),
		port: port,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: from,
	}
}

// Configured reports whether mail can be sent
func (m *Mailer) Configured() bool {
	return m != nil && m.host != "" && m.from != ""
}

// Send delivers a plain text message
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Configured() {
		return ErrMailerNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := d.DialAndSend(msg); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return err
	}
	return nil
}

// SendSalarySlip mails an employee their slip for month
func (m *Mailer) SendSalarySlip(to, name, month string, days int, amount decimal.Decimal) error {
	body := fmt.Sprintf("Dear %s,\n\nYour salary for %s has been generated.\nPayable days: %d\nAmount: %s\n",
		name, month, days, amount.StringFixed(2))
	return m.Send(to, "Salary slip "+month, body)
}
