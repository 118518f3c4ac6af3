package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReceipt(t *testing.T) {
	b := Branding{CompanyName: "Acme", AppName: "Acme Pay"}
	data := NewReceiptData(b, "Budi", "budi@example.com", ReceiptInfo{
		InvoiceNumber:   "INV15012025-001",
		TransactionType: "PAYMENT",
		Description:     "Pulsa",
		Amount:          "10000",
		Balance:         "40000",
	}, WithTime(time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)))

	subject, text, html, err := Render(Receipt, data)
	require.NoError(t, err)
	assert.Equal(t, "Acme Pay receipt INV15012025-001", subject)
	assert.Contains(t, text, "Pulsa")
	assert.Contains(t, text, "15 January 2025, 08:00")
	assert.Contains(t, html, "INV15012025-001")
}

func TestRenderWelcomeDefaults(t *testing.T) {
	data := NewWelcomeData(Branding{}, "", "new@example.com")
	subject, text, _, err := Render(Welcome, data)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to PPOB", subject)
	assert.Contains(t, text, "Hi there")
	assert.Contains(t, text, "new@example.com")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("missing", nil)
	assert.Error(t, err)
}
