package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/velorahq/velora/internal/pkg/env"
)

// Template identifiers used by the webhook handlers.
const (
	TemplatePaymentSucceeded      = "payment_succeeded"
	TemplateSubscriptionActivated = "subscription_activated"
	TemplateSubscriptionRenewed   = "subscription_renewed"
)

// Mailer delivers templated notification emails. Failures must never corrupt
// billing state; callers treat Send as fire-and-forget.
type Mailer interface {
	Send(to string, template string, data map[string]string) error
}

type template struct {
	subject string
	body    string
}

func renderTemplate(name string, data map[string]string) (template, bool) {
	switch name {
	case TemplatePaymentSucceeded:
		return template{
			subject: "Payment Received",
			body:    fmt.Sprintf("<p>Thank you! Your payment of %s has been received.</p>", data["amount"]),
		}, true
	case TemplateSubscriptionActivated:
		return template{
			subject: fmt.Sprintf("Welcome to the %s Plan!", data["plan"]),
			body:    fmt.Sprintf("<p>Your subscription to the %s plan is now active.</p>", data["plan"]),
		}, true
	case TemplateSubscriptionRenewed:
		return template{
			subject: "Subscription Renewed",
			body:    "<p>Your subscription has been renewed successfully.</p>",
		}, true
	default:
		return template{}, false
	}
}

// SMTPMailer sends templated emails via SMTP using env configuration.
type SMTPMailer struct{}

func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{}
}

func (m *SMTPMailer) Send(to string, templateName string, data map[string]string) error {
	tpl, ok := renderTemplate(templateName, data)
	if !ok {
		// Unknown templates are skipped so new notification types can roll
		// out ahead of their templates.
		log.Printf("No mail template %q, skipping send to %s", templateName, to)
		return nil
	}
	return SendMail(to, tpl.subject, tpl.body)
}

// SendMail sends a single HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "587")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}
