package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	tpl, ok := renderTemplate(TemplatePaymentSucceeded, map[string]string{"amount": "499.00"})
	assert.True(t, ok)
	assert.Equal(t, "Payment Received", tpl.subject)
	assert.Contains(t, tpl.body, "499.00")

	tpl, ok = renderTemplate(TemplateSubscriptionActivated, map[string]string{"plan": "pro"})
	assert.True(t, ok)
	assert.Contains(t, tpl.subject, "pro")
	assert.Contains(t, tpl.body, "pro")

	tpl, ok = renderTemplate(TemplateSubscriptionRenewed, nil)
	assert.True(t, ok)
	assert.Equal(t, "Subscription Renewed", tpl.subject)
}

func TestRenderTemplate_Unknown(t *testing.T) {
	_, ok := renderTemplate("password_reset", nil)
	assert.False(t, ok)
}

func TestSMTPMailer_UnknownTemplateIsSkipped(t *testing.T) {
	mailer := NewSMTPMailer()

	// Unknown templates are a no-op, not an error, so new notification types
	// can ship before their templates do.
	err := mailer.Send("jo@example.com", "password_reset", nil)
	assert.NoError(t, err)
}
