package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/ppob-membership/pkg/mailer"
	mailtpl "github.com/oksasatya/ppob-membership/pkg/mailer/templates"
)

func TestRenderJobFromTemplate(t *testing.T) {
	job := mailer.EmailJob{
		To:       " budi@example.com ",
		Template: mailtpl.Receipt,
		Data: mailtpl.NewReceiptData(mailtpl.Branding{AppName: "Acme Pay"}, "Budi", "", mailtpl.ReceiptInfo{
			InvoiceNumber:   "INV15012025-002",
			TransactionType: "PAYMENT",
			Description:     "Pulsa",
			Amount:          "10000.00",
			Balance:         "40000.00",
		}),
	}
	subject, text, html, err := RenderJob(&job)
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", job.To)
	assert.Equal(t, "budi@example.com", job.Data["RecipientEmail"])
	assert.Equal(t, "Acme Pay receipt INV15012025-002", subject)
	assert.Contains(t, text, "40000.00")
	assert.Contains(t, html, "INV15012025-002")
}

func TestRenderJobPlain(t *testing.T) {
	job := mailer.EmailJob{To: "a@example.com", Text: "hello"}
	subject, text, html, err := RenderJob(&job)
	require.NoError(t, err)
	assert.Equal(t, "Notification", subject)
	assert.Equal(t, "hello", text)
	assert.Empty(t, html)
}

func TestRenderJobRejectsBadJobs(t *testing.T) {
	_, _, _, err := RenderJob(&mailer.EmailJob{To: "  ", Text: "x"})
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, _, _, err = RenderJob(&mailer.EmailJob{To: "a@example.com", Template: "missing"})
	assert.Error(t, err)
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "Receipt INV1", SubjectFor(mailer.EmailJob{Template: "RECEIPT", Data: map[string]any{"InvoiceNumber": "INV1"}}))
	assert.Equal(t, "Transaction receipt", SubjectFor(mailer.EmailJob{Template: "receipt"}))
	assert.Equal(t, "Welcome", SubjectFor(mailer.EmailJob{Template: "welcome"}))
}
